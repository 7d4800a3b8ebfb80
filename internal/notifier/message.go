package notifier

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
)

// attachment is a single binary file carried by an outgoing message
type attachment struct {
	filename string
	mimeType string
	content  []byte
}

// buildMessage renders an RFC-5322 message. With no attachment the body is a
// single base64 text part; with one it becomes multipart/mixed.
func buildMessage(from, to, subject, body string, att *attachment) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	if att == nil {
		fmt.Fprintf(&buf, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		fmt.Fprintf(&buf, "Content-Transfer-Encoding: base64\r\n\r\n")
		buf.WriteString(base64.StdEncoding.EncodeToString([]byte(body)))
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", `text/plain; charset="UTF-8"`)
	textHeader.Set("Content-Transfer-Encoding", "base64")
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(base64.StdEncoding.EncodeToString([]byte(body)))); err != nil {
		return nil, fmt.Errorf("failed to write text part: %w", err)
	}

	attHeader := textproto.MIMEHeader{}
	attHeader.Set("Content-Type", att.mimeType)
	attHeader.Set("Content-Transfer-Encoding", "base64")
	attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.filename))
	attPart, err := writer.CreatePart(attHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment part: %w", err)
	}
	if _, err := attPart.Write([]byte(base64.StdEncoding.EncodeToString(att.content))); err != nil {
		return nil, fmt.Errorf("failed to write attachment: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}

	return buf.Bytes(), nil
}
