package paths

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Path identifies a program point by the alignment tokens on the way to it.
// It is a canonical byte encoding of the tokens, so equal token sequences give equal paths,
// and paths can be compared, used as map keys and sent over the wire as is.
type Path string

// Root is the path of the program entry point.
const Root Path = ""

var ErrMalformedPath = errors.New("malformed path")

func (p Path) Append(token Token) Path {
	buf := make([]byte, 0, len(p)+len(token.Key)+binary.MaxVarintLen64*2+1)
	buf = append(buf, p...)
	buf = append(buf, byte(token.Kind))
	buf = binary.AppendUvarint(buf, uint64(len(token.Key)))
	buf = append(buf, token.Key...)
	buf = binary.AppendUvarint(buf, uint64(token.Index))
	return Path(buf)
}

func (p Path) Tokens() (ret []Token, err error) {
	data := []byte(p)
	for len(data) > 0 {
		kind := Kind(data[0])
		data = data[1:]
		keyLen, n := binary.Uvarint(data)
		if n <= 0 || uint64(len(data)-n) < keyLen {
			return nil, fmt.Errorf("%w: bad key length", ErrMalformedPath)
		}
		data = data[n:]
		key := string(data[:keyLen])
		data = data[keyLen:]
		index, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, fmt.Errorf("%w: bad index", ErrMalformedPath)
		}
		data = data[n:]
		ret = append(ret, Token{
			Kind:  kind,
			Key:   key,
			Index: int(index),
		})
	}
	return
}

func (p Path) Len() int {
	tokens, err := p.Tokens()
	if err != nil {
		return -1
	}
	return len(tokens)
}

func (p Path) String() string {
	if p == Root {
		return "/"
	}
	tokens, err := p.Tokens()
	if err != nil {
		return fmt.Sprintf("%q", string(p))
	}
	var sb strings.Builder
	for _, token := range tokens {
		sb.WriteString("/")
		sb.WriteString(token.String())
	}
	return sb.String()
}

// FromTokens builds the path reached by pushing tokens in order.
func FromTokens(tokens ...Token) Path {
	path := Root
	for _, token := range tokens {
		path = path.Append(token)
	}
	return path
}
