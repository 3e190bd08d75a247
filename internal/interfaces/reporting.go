package interfaces

// AttachmentSink receives diagnostic artifacts produced during a run.
// The core calls it for screenshots and step messages but does not depend
// on where the attachments end up.
type AttachmentSink interface {
	// Attach stores one artifact. mimeType is a standard MIME type
	// ("text/plain", "image/png"); label names the artifact in the report.
	Attach(data []byte, mimeType string, label string) error
}

// Decrypter resolves the pwd./enc. placeholder forms. Consumed as an opaque
// capability; the variable store never inspects ciphertext.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}
