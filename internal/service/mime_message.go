package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tyemirov/claimrelay/internal/model"
)

const base64LineLength = 76

// buildEmailMessage renders message as an RFC 5322 email. Without attachments the
// body is a single text/plain part; otherwise a multipart/mixed tree with base64
// attachment parts.
func buildEmailMessage(message model.EmailMessage, sentAt time.Time) []byte {
	var buffer bytes.Buffer

	writeHeader(&buffer, "From", message.From)
	writeHeader(&buffer, "To", strings.Join(message.To, ", "))
	writeHeader(&buffer, "Subject", mime.QEncoding.Encode("utf-8", stripControlCharacters(message.Subject)))
	writeHeader(&buffer, "Date", sentAt.UTC().Format(time.RFC1123Z))
	writeHeader(&buffer, "Message-ID", "<"+uuid.NewString()+"@claimrelay>")
	writeHeader(&buffer, "MIME-Version", "1.0")

	if len(message.Attachments) == 0 {
		writeHeader(&buffer, "Content-Type", "text/plain; charset=\"utf-8\"")
		writeHeader(&buffer, "Content-Transfer-Encoding", "quoted-printable")
		buffer.WriteString("\r\n")
		writeQuotedPrintable(&buffer, message.Text)
		return buffer.Bytes()
	}

	mixedWriter := multipart.NewWriter(&buffer)
	writeHeader(&buffer, "Content-Type", "multipart/mixed; boundary=\""+mixedWriter.Boundary()+"\"")
	buffer.WriteString("\r\n")

	textPart, _ := mixedWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=\"utf-8\""},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	var textBuffer bytes.Buffer
	writeQuotedPrintable(&textBuffer, message.Text)
	_, _ = textPart.Write(textBuffer.Bytes())

	for _, attachment := range message.Attachments {
		filename := sanitizeFilename(attachment.Filename)
		attachmentPart, _ := mixedWriter.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {stripControlCharacters(attachment.ContentType)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		_, _ = attachmentPart.Write(wrapBase64(attachment.Data))
	}
	_ = mixedWriter.Close()

	return buffer.Bytes()
}

func writeHeader(buffer *bytes.Buffer, name string, value string) {
	buffer.WriteString(name)
	buffer.WriteString(": ")
	buffer.WriteString(stripControlCharacters(value))
	buffer.WriteString("\r\n")
}

func writeQuotedPrintable(buffer *bytes.Buffer, text string) {
	writer := quotedprintable.NewWriter(buffer)
	_, _ = writer.Write([]byte(strings.ReplaceAll(normalizeLineEndings(text), "\n", "\r\n")))
	_ = writer.Close()
}

// normalizeLineEndings folds CRLF and lone CR to LF. Form textareas submit CRLF.
func normalizeLineEndings(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var wrapped bytes.Buffer
	for start := 0; start < len(encoded); start += base64LineLength {
		end := start + base64LineLength
		if end > len(encoded) {
			end = len(encoded)
		}
		wrapped.WriteString(encoded[start:end])
		wrapped.WriteString("\r\n")
	}
	return wrapped.Bytes()
}

// sanitizeFilename keeps header injection out of Content-Disposition.
func sanitizeFilename(filename string) string {
	cleaned := stripControlCharacters(filename)
	cleaned = strings.NewReplacer("\"", "", "\\", "").Replace(cleaned)
	if strings.TrimSpace(cleaned) == "" {
		return model.DefaultAttachmentFilename
	}
	return cleaned
}

func stripControlCharacters(value string) string {
	return strings.Map(func(character rune) rune {
		if character < 0x20 || character == 0x7f {
			return -1
		}
		return character
	}, value)
}
