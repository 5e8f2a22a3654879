package paths

import "errors"

var ErrStackUnderflow = errors.New("alignment stack underflow")

// Stack is the alignment stack of one device for one round.
// It is not safe for concurrent use; each round owns its own Stack.
type Stack struct {
	frames []frame
}

type frame struct {
	token Token
	path  Path
	seen  map[siblingKey]int
}

type siblingKey struct {
	kind Kind
	key  string
}

func NewStack() *Stack {
	s := &Stack{
		frames: make([]frame, 0, 16),
	}
	s.Clear()
	return s
}

func (s *Stack) Clear() {
	clear(s.frames)
	s.frames = append(s.frames[:0], frame{
		path: Root,
	})
}

func (s *Stack) CurrentPath() Path {
	return s.frames[len(s.frames)-1].path
}

// Depth is the number of tokens on the stack.
func (s *Stack) Depth() int {
	return len(s.frames) - 1
}

// Next returns the token for the next sibling with the given discriminator in the current scope.
// Calling Next reserves the position, so a second call with the same discriminator yields the next index.
func (s *Stack) Next(kind Kind, key string) Token {
	top := &s.frames[len(s.frames)-1]
	if top.seen == nil {
		top.seen = make(map[siblingKey]int)
	}
	sk := siblingKey{
		kind: kind,
		key:  key,
	}
	index := top.seen[sk]
	top.seen[sk] = index + 1
	return Token{
		Kind:  kind,
		Key:   key,
		Index: index,
	}
}

func (s *Stack) Align(token Token) {
	s.frames = append(s.frames, frame{
		token: token,
		path:  s.CurrentPath().Append(token),
	})
}

func (s *Stack) Dealign() error {
	if len(s.frames) <= 1 {
		return ErrStackUnderflow
	}
	s.frames[len(s.frames)-1] = frame{}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Tokens returns a copy of the tokens on the stack, bottom first.
func (s *Stack) Tokens() []Token {
	ret := make([]Token, 0, len(s.frames)-1)
	for _, f := range s.frames[1:] {
		ret = append(ret, f.token)
	}
	return ret
}
