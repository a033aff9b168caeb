package fishaudio

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

const (
	defaultFileMimeType = "application/octet-stream"
	defaultFileName     = "file"
	listSeparator       = ","
)

// Error messages.
const (
	errFailedToCreateFormFile = "failed to create form file %q: %w"
	errFailedToWriteFileData  = "failed to write file data %q: %w"
	errFailedToWriteField     = "failed to write field %q: %w"
	errFailedToCloseWriter    = "failed to close multipart writer: %w"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field string
	file  File
}

// Form accumulates the parts of a multipart request body. Encode writes all
// scalar fields first, then all files, each group in the order it was added.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// AddField adds a scalar field. Empty values are skipped.
func (f *Form) AddField(name, value string) {
	if value == "" {
		return
	}

	f.fields = append(f.fields, formField{name: name, value: value})
}

// AddList splits a comma-separated value and adds one field per element.
func (f *Form) AddList(name, list string) {
	for _, element := range SplitList(list) {
		f.fields = append(f.fields, formField{name: name, value: element})
	}
}

// AddFile adds a file part under the given field name.
func (f *Form) AddFile(field string, file File) {
	f.files = append(f.files, formFile{field: field, file: file})
}

// Encode writes the form as multipart/form-data and returns the body and
// its content type, boundary included.
func (f *Form) Encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		err := writer.WriteField(field.name, field.value)
		if err != nil {
			return nil, "", fmt.Errorf(errFailedToWriteField, field.name, err)
		}
	}

	for _, part := range f.files {
		err := writeFilePart(writer, part)
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf(errFailedToCloseWriter, err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, part formFile) error {
	mimeType := part.file.MimeType
	if mimeType == "" {
		mimeType = defaultFileMimeType
	}

	fileName := part.file.FileName
	if fileName == "" {
		fileName = defaultFileName
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="%s"; filename="%s"`,
		escapeQuotes(part.field), escapeQuotes(fileName),
	))
	header.Set(headerContentType, mimeType)

	partWriter, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf(errFailedToCreateFormFile, part.field, err)
	}

	_, err = partWriter.Write(part.file.Data)
	if err != nil {
		return fmt.Errorf(errFailedToWriteFileData, part.field, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// SplitList splits a comma-separated value, trimming whitespace around each
// element and dropping empty elements.
func SplitList(list string) []string {
	var elements []string

	for _, element := range strings.Split(list, listSeparator) {
		trimmed := strings.TrimSpace(element)
		if trimmed != "" {
			elements = append(elements, trimmed)
		}
	}

	return elements
}
