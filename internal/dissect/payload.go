package dissect

import (
	"fmt"
	"strings"

	"caramelo/internal/models"
)

func describePayload(data []byte) models.LayerDetail {
	return models.LayerDetail{
		Name: "Payload",
		Fields: []models.LayerField{
			{Name: "Length", Value: fmt.Sprintf("%d bytes", len(data))},
			{Name: "Text", Value: PayloadText(data)},
			{Name: "Bytes", Value: FormatEscaped(data)},
			{Name: "Hex Dump", Value: FormatHexDump(data)},
		},
	}
}

// PayloadText renders printable ASCII as-is and everything else as '.'.
// Line breaks are kept so text protocols stay readable.
func PayloadText(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		switch {
		case b == '\n' || b == '\t':
			sb.WriteByte(b)
		case b == '\r':
		case b >= 0x20 && b <= 0x7e:
			sb.WriteByte(b)
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// FormatEscaped renders every byte as a \xNN token, space separated.
func FormatEscaped(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) * 5)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "\\x%02x", b)
	}
	return sb.String()
}

// FormatHexDump renders data as offset, 16 hex bytes and an ASCII column
// per line.
func FormatHexDump(data []byte) string {
	var sb strings.Builder
	for offset := 0; offset < len(data); offset += 16 {
		sb.WriteString(fmt.Sprintf("%04x  ", offset))

		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		for i := offset; i < offset+16; i++ {
			if i < end {
				sb.WriteString(fmt.Sprintf("%02x ", data[i]))
			} else {
				sb.WriteString("   ")
			}
			if i == offset+7 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(" |")

		for i := offset; i < end; i++ {
			b := data[i]
			if b >= 0x20 && b <= 0x7e {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('|')
		sb.WriteByte('\n')
	}
	return sb.String()
}
