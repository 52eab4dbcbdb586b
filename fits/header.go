package fits

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// header holds FITS header cards. The writer side appends formatted 80-byte
// cards in order; the reader side keeps raw value text per keyword.
type header struct {
	cards  []string
	values map[string]string
}

func newHeader() header {
	return header{values: make(map[string]string)}
}

func (h *header) appendCard(card string) {
	if len(card) > cardSize {
		card = card[:cardSize]
	}
	h.cards = append(h.cards, card+strings.Repeat(" ", cardSize-len(card)))
}

func (h *header) appendLogical(key string, v bool, comment string) {
	var val = "F"
	if v {
		val = "T"
	}
	h.appendValue(key, fmt.Sprintf("%20s", val), comment)
}

func (h *header) appendInt(key string, v int, comment string) {
	h.appendValue(key, fmt.Sprintf("%20d", v), comment)
}

func (h *header) appendString(key, v, comment string) {
	var inner = strings.ReplaceAll(v, "'", "''")
	// The standard fixed format pads short strings to eight characters
	// inside the quotes.
	if len(inner) < 8 {
		inner += strings.Repeat(" ", 8-len(inner))
	}
	h.appendValue(key, "'"+inner+"'", comment)
}

func (h *header) appendValue(key, value, comment string) {
	var card = fmt.Sprintf("%-8s= %s", key, value)
	if comment != "" {
		card += " / " + comment
	}
	h.appendCard(card)
}

// writeTo emits all cards, the END card, and space padding to a block
// boundary.
func (h *header) writeTo(buf *bytes.Buffer) {
	for _, card := range h.cards {
		buf.WriteString(card)
	}
	buf.WriteString("END" + strings.Repeat(" ", cardSize-3))
	padBlock(buf, ' ')
}

// readHeader consumes whole 2880-byte blocks until the END card is seen.
func readHeader(r io.Reader) (header, error) {
	var h = newHeader()
	var block = make([]byte, blockSize)
	for {
		if _, err := io.ReadFull(r, block); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return h, err
		}
		for off := 0; off < blockSize; off += cardSize {
			var card = string(block[off : off+cardSize])
			var key = strings.TrimRight(card[:8], " ")
			if key == "END" {
				return h, nil
			}
			if key == "" || key == "COMMENT" || key == "HISTORY" {
				continue
			}
			if len(card) < 10 || card[8:10] != "= " {
				continue
			}
			h.values[key] = parseValue(card[10:])
		}
	}
}

// parseValue extracts the value text of a card, stripping any inline comment.
// Quoted strings have their doubled quotes unescaped and trailing pad spaces
// removed.
func parseValue(s string) string {
	s = strings.TrimLeft(s, " ")
	if strings.HasPrefix(s, "'") {
		var out strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					out.WriteByte('\'')
					i++
					continue
				}
				break
			}
			out.WriteByte(s[i])
		}
		return strings.TrimRight(out.String(), " ")
	}
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func (h header) str(key string) string {
	return h.values[key]
}

func (h header) integer(key string, def ...int64) int64 {
	raw, ok := h.values[key]
	if !ok {
		if len(def) > 0 {
			return def[0]
		}
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
