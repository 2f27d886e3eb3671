package domain

import "time"

// Default rendering parameters for issued codes.
const (
	DefaultQRColor      = "#000000"
	DefaultQRBackground = "#FFFFFF"
	DefaultQRSize       = 300
	DefaultQRMargin     = 1
)

// QRRecord is the persisted metadata of one generated code. The image bytes
// live in the image store, not here.
type QRRecord struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Text        string      `json:"text"`
	Color       string      `json:"color"`
	GeneratedAt time.Time   `json:"generatedAt"`
	EmailSent   bool        `json:"emailSent"`
	EmailStatus EmailStatus `json:"emailStatus"`
	Downloads   int         `json:"downloads"`
}

// ColorOptions selects the module and background colours of a rendered code.
type ColorOptions struct {
	Foreground string
	Background string
}

// RenderOptions is everything the encoder needs besides the text.
type RenderOptions struct {
	Colors ColorOptions
	Size   int
	Margin int
}

// DefaultRenderOptions returns the options used for issuance with the given
// foreground colour.
func DefaultRenderOptions(foreground string) RenderOptions {
	if foreground == "" {
		foreground = DefaultQRColor
	}
	return RenderOptions{
		Colors: ColorOptions{Foreground: foreground, Background: DefaultQRBackground},
		Size:   DefaultQRSize,
		Margin: DefaultQRMargin,
	}
}

// EmailStatus is the outcome of the email gate of an issuance.
type EmailStatus string

const (
	EmailSkipped EmailStatus = "skipped"
	EmailSent    EmailStatus = "sent"
	EmailBlocked EmailStatus = "blocked"
	EmailFailed  EmailStatus = "failed"
)

// Attachment is a file carried by an outgoing email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Email is a message handed to the mail transport.
type Email struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}
