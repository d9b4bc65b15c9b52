// Copyright (C) 2025 The flatjson Authors. All Rights Reserved.

package flatjson

// state is one of the six top-level states of the parse engine (spec.md
// §4.1). Whitespace is only consumed in stateNormal, stateAfterValue, and
// stateExpectColon (so whitespace may appear before an object key's colon).
type state uint8

const (
	stateNormal state = iota
	stateAfterValue
	stateExpectColon
	stateInString
	stateInNumber
	stateInLiteral
)

type literalKind uint8

const (
	litNone literalKind = iota
	litTrue
	litFalse
	litNull
)

var literalText = [...]string{
	litTrue:  "true",
	litFalse: "false",
	litNull:  "null",
}

var literalNodeType = [...]NodeType{
	litTrue:  True,
	litFalse: False,
	litNull:  Null,
}

// stackEntry is one open container: its node index in the arena, whether
// the parser is currently expecting an object key (set on object open and
// on comma inside an object, cleared once a key's colon has been
// consumed; always false for arrays), and whether a comma has been seen
// since this container opened (used to reject a trailing comma: this
// container's close delimiter is only legal in stateNormal when no comma
// has been consumed yet, i.e. the container is still empty).
type stackEntry struct {
	node         NodeRef
	expectingKey bool
	sawComma     bool
}

// A Parser drives the byte-level state machine described in spec.md §4.1.
// It is fed arbitrarily-sized byte chunks across any number of Feed calls
// and writes nodes into its Store in left-to-right document order.
//
// A Parser is strictly single-threaded and holds no reference to the bytes
// it was fed once Feed returns (spec.md §5): every Offset/Len it writes is
// an offset into the logical, caller-reassembled stream, not into any
// chunk the Parser has seen. The caller must keep that stream (or resolve
// it into owned buffers) alive for as long as Node offsets are read later.
type Parser struct {
	store *Store
	stack []stackEntry

	consumed int // bytes consumed by previous Feed calls
	line     int // 0-based running line count

	state state
	err   *ParseError

	pendingOffset int
	pendingLen    int
	pendingHash   uint32
	isKeyString   bool
	inEscape      bool
	inUniEscape   bool
	uniDigits     int
	pendingValue  bool // true once an object key's string closes, cleared once its value begins

	numHasDot            bool
	numHasExp            bool
	numHasDigit          bool
	numHasDigitAfterDot  bool
	numHasDigitAfterExp  bool
	numEndsWithDot       bool
	numEndsWithE         bool
	numEndsWithESign     bool
	numIsNegative        bool
	numIntPartDigits     int
	numIntPartLeadingZero bool

	pendingLiteral literalKind
	literalMatched int
}

// NewParser allocates a Parser with the given node and container-stack
// capacities (spec.md §4.1's node_cap/stack_cap). Both arenas are fixed:
// exceeding either capacity reports ErrCapacity rather than reallocating.
func NewParser(nodeCap, stackCap int) *Parser {
	p := &Parser{
		store: NewStore(nodeCap),
		stack: make([]stackEntry, 0, stackCap),
	}
	p.Init()
	return p
}

// Init resets the parser to its construction-time state: zero nodes, no
// error, state Normal, line 0, consumed 0. Capacities are unchanged. Init
// leaves the parser in the same state regardless of what it held before.
func (p *Parser) Init() {
	store, stack := p.store, p.stack[:0]
	*p = Parser{store: store, stack: stack}
	store.nodes = store.nodes[:0]
}

// Store returns the arena the parser writes into.
func (p *Parser) Store() *Store { return p.store }

// Err returns the sticky parse error, if any has been recorded.
func (p *Parser) Err() *ParseError { return p.err }

// Consumed returns the total number of bytes accepted by Feed so far.
func (p *Parser) Consumed() int { return p.consumed }

// Feed ingests one chunk of input. It returns false if a parse error or
// capacity overflow occurs (inspect Err for details), or if the parser had
// already recorded an error from a previous call. A zero-length chunk is a
// no-op that returns true unless an error was already recorded.
func (p *Parser) Feed(data []byte) bool {
	if p.err != nil {
		return false
	}

	pos := 0
	for pos < len(data) {
		if p.state == stateNormal || p.state == stateAfterValue || p.state == stateExpectColon {
			pos = p.skipWhitespace(data, pos)
			if pos >= len(data) {
				break
			}
		}

		var ok bool
		switch p.state {
		case stateExpectColon:
			pos, ok = p.stepExpectColon(data, pos)
		case stateInLiteral:
			pos, ok = p.stepLiteral(data, pos)
		case stateInString:
			pos, ok = p.stepString(data, pos)
		case stateInNumber:
			pos, ok = p.stepNumber(data, pos)
		default: // stateNormal, stateAfterValue
			pos, ok = p.stepNormalOrAfterValue(data, pos)
		}
		if !ok {
			return false
		}
	}

	p.consumed += pos
	return true
}

// Finish checks that the parser is in an acceptable terminal state and, if
// a number was still pending at end of input (numbers have no closing
// delimiter), finalizes it into the arena. It returns false if input was
// incomplete or the arena holds no nodes (spec.md §4.1, §8).
func (p *Parser) Finish() bool {
	if p.err != nil {
		return false
	}
	if len(p.stack) != 0 {
		p.err = &ParseError{Kind: ErrIncomplete, Pos: p.consumed, Line: p.line + 1}
		return false
	}
	switch p.state {
	case stateInNumber:
		if !p.numberWellFormed() {
			p.err = &ParseError{Kind: ErrUnexpected, Pos: p.consumed, Line: p.line + 1}
			return false
		}
		if !p.appendNumber() {
			p.err = &ParseError{Kind: ErrCapacity, Pos: p.consumed, Line: p.line + 1}
			return false
		}
	case stateInString, stateInLiteral:
		p.err = &ParseError{Kind: ErrIncomplete, Pos: p.consumed, Line: p.line + 1}
		return false
	}
	return p.store.Len() > 0
}

func (p *Parser) fail(kind ErrorKind, pos int) (int, bool) {
	p.err = &ParseError{Kind: kind, Pos: p.consumed + pos, Line: p.line + 1}
	return pos, false
}

func (p *Parser) skipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		c := data[pos]
		if c == '\n' || c == '\r' {
			p.line++
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		pos++
	}
	return pos
}

func (p *Parser) stackTop() *stackEntry { return &p.stack[len(p.stack)-1] }

func (p *Parser) pushStack(e stackEntry) bool {
	if len(p.stack) >= cap(p.stack) {
		return false
	}
	p.stack = append(p.stack, e)
	return true
}

func (p *Parser) incrementEnclosingChildren() {
	if len(p.stack) > 0 {
		p.store.At(p.stackTop().node).Children++
	}
}

// inheritKeyHash copies the hash of the preceding key node onto a
// just-appended value node, if that value is a direct member of an object.
func (p *Parser) inheritKeyHash(idx NodeRef) {
	if len(p.stack) == 0 || idx == 0 {
		return
	}
	if p.store.At(p.stackTop().node).Type != Object {
		return
	}
	if prev := p.store.At(idx - 1); prev.Type == String {
		p.store.At(idx).Hash = prev.Hash
	}
}

func (p *Parser) stepExpectColon(data []byte, pos int) (int, bool) {
	if data[pos] != ':' {
		return p.fail(ErrUnexpected, pos)
	}
	p.stackTop().expectingKey = false
	p.state = stateNormal
	return pos + 1, true
}

func (p *Parser) stepLiteral(data []byte, pos int) (int, bool) {
	c := data[pos]
	want := literalText[p.pendingLiteral]
	if c != want[p.literalMatched] {
		return p.fail(ErrUnexpected, pos)
	}
	p.literalMatched++
	pos++
	if p.literalMatched == len(want) {
		idx, ok := p.store.Append(Node{
			Type:   literalNodeType[p.pendingLiteral],
			Offset: uint32(p.pendingOffset),
			Len:    uint32(len(want)),
		})
		if !ok {
			return p.fail(ErrCapacity, pos)
		}
		p.inheritKeyHash(idx)
		p.incrementEnclosingChildren()
		p.state = stateAfterValue
		p.pendingLiteral = litNone
		p.literalMatched = 0
	}
	return pos, true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (p *Parser) stepString(data []byte, pos int) (int, bool) {
	c := data[pos]

	// A key's hash covers every raw byte between the quotes, escapes included.
	if p.isKeyString && (p.inEscape || p.inUniEscape || c != '"') {
		p.pendingHash = p.pendingHash*33 ^ uint32(c)
	}

	if p.inUniEscape {
		if !isHexDigit(c) {
			return p.fail(ErrUnexpected, pos)
		}
		p.uniDigits++
		if p.uniDigits == 4 {
			p.inUniEscape = false
		}
		p.pendingLen++
		return pos + 1, true
	}

	if p.inEscape {
		p.inEscape = false
		switch c {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		case 'u':
			p.inUniEscape = true
			p.uniDigits = 0
		default:
			return p.fail(ErrUnexpected, pos)
		}
		p.pendingLen++
		return pos + 1, true
	}

	if c == '\\' {
		p.inEscape = true
		p.pendingLen++
		return pos + 1, true
	}

	if c == '"' {
		n := Node{Type: String, Offset: uint32(p.pendingOffset), Len: uint32(p.pendingLen)}
		if p.isKeyString {
			n.Hash = p.pendingHash & 0x0FFFFFFF
		}
		idx, ok := p.store.Append(n)
		if !ok {
			return p.fail(ErrCapacity, pos)
		}
		if !p.isKeyString {
			p.inheritKeyHash(idx)
			p.incrementEnclosingChildren()
		}
		pos++
		if p.isKeyString {
			p.state = stateExpectColon
			p.pendingValue = true
		} else {
			p.state = stateAfterValue
		}
		p.inEscape, p.inUniEscape, p.uniDigits = false, false, 0
		return pos, true
	}

	p.pendingLen++
	return pos + 1, true
}

func (p *Parser) resetNumberState() {
	p.numHasDot, p.numHasExp = false, false
	p.numHasDigit, p.numHasDigitAfterDot, p.numHasDigitAfterExp = false, false, false
	p.numEndsWithDot, p.numEndsWithE, p.numEndsWithESign = false, false, false
	p.numIntPartDigits, p.numIntPartLeadingZero = 0, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *Parser) stepNumber(data []byte, pos int) (int, bool) {
	c := data[pos]
	switch {
	case isDigit(c):
		p.numHasDigit = true
		if p.numHasDot {
			p.numHasDigitAfterDot = true
		}
		if p.numHasExp {
			p.numHasDigitAfterExp = true
		}
		if !p.numHasDot && !p.numHasExp {
			if p.numIntPartDigits == 0 {
				p.numIntPartLeadingZero = c == '0'
			}
			p.numIntPartDigits++
		}
		p.numEndsWithDot, p.numEndsWithE, p.numEndsWithESign = false, false, false
		p.pendingLen++
		return pos + 1, true

	case c == '.' && !p.numHasDot && !p.numHasExp:
		p.numHasDot, p.numEndsWithDot = true, true
		p.pendingLen++
		return pos + 1, true

	case (c == 'e' || c == 'E') && !p.numHasExp && p.numHasDigit:
		p.numHasExp, p.numEndsWithE = true, true
		p.pendingLen++
		return pos + 1, true

	case (c == '+' || c == '-') && p.numEndsWithE:
		p.numEndsWithESign, p.numEndsWithE = true, false
		p.pendingLen++
		return pos + 1, true

	default:
		if !p.numberWellFormed() {
			return p.fail(ErrUnexpected, pos)
		}
		if !p.appendNumber() {
			return p.fail(ErrCapacity, pos)
		}
		p.state = stateAfterValue
		return pos, true // do not consume the terminating byte
	}
}

// numberWellFormed validates the number scanned so far, per spec.md §4.1's
// rules (shared between the in-Feed terminator path and Finish).
func (p *Parser) numberWellFormed() bool {
	if !p.numHasDigit {
		return false
	}
	if p.numIsNegative && p.pendingLen == 1 {
		return false
	}
	if p.numHasDot && !p.numHasDigitAfterDot {
		return false
	}
	if p.numHasExp && !p.numHasDigitAfterExp {
		return false
	}
	if p.numEndsWithDot || p.numEndsWithE || p.numEndsWithESign {
		return false
	}
	// RFC 8259: no leading zeroes except "0" itself. Spec.md flags this as
	// an open question and recommends enforcing it even though the source
	// this was distilled from does not; see DESIGN.md.
	if p.numIntPartLeadingZero && p.numIntPartDigits > 1 {
		return false
	}
	return true
}

func (p *Parser) appendNumber() bool {
	typ := IntNumber
	if p.numHasDot || p.numHasExp {
		typ = FloatNumber
	}
	idx, ok := p.store.Append(Node{Type: typ, Offset: uint32(p.pendingOffset), Len: uint32(p.pendingLen)})
	if !ok {
		return false
	}
	p.inheritKeyHash(idx)
	p.incrementEnclosingChildren()
	return true
}

// stepNormalOrAfterValue handles container close (valid from both states),
// then whichever of Normal or AfterValue's own transitions applies.
func (p *Parser) stepNormalOrAfterValue(data []byte, pos int) (int, bool) {
	c := data[pos]

	if len(p.stack) > 0 {
		topType := p.store.At(p.stackTop().node).Type
		if (c == '}' && topType == Object) || (c == ']' && topType == Array) {
			// A close is legal from stateAfterValue (it follows a complete
			// element/pair) unconditionally. From stateNormal it is legal
			// only for a still-empty container ("{}"/"[]"); stateNormal
			// reached via a comma means an element/pair is expected next,
			// so a trailing comma before the close (spec.md: no
			// trailing-comma tolerance) must be rejected here, not accepted.
			if p.pendingValue || (p.state == stateNormal && p.stackTop().sawComma) {
				return p.fail(ErrUnexpected, pos)
			}
			open := p.stack[len(p.stack)-1].node
			p.stack = p.stack[:len(p.stack)-1]
			n := p.store.At(open)
			n.Len = uint32(p.consumed+pos) - n.Offset + 1
			n.Hash = uint32(p.store.Len() - (int(open) + 1))
			p.state = stateAfterValue
			return pos + 1, true
		}
	}

	if p.state == stateAfterValue {
		if c == ',' {
			p.state = stateNormal
			if len(p.stack) > 0 {
				p.stackTop().sawComma = true
			}
			if len(p.stack) > 0 && p.store.At(p.stackTop().node).Type == Object {
				p.stackTop().expectingKey = true
			}
			return pos + 1, true
		}
		return p.fail(ErrUnexpected, pos)
	}

	// stateNormal
	expectingKey := len(p.stack) > 0 && p.stackTop().expectingKey
	if expectingKey {
		if c != '"' {
			return p.fail(ErrUnexpected, pos)
		}
		p.beginString(pos, true)
		return pos + 1, true
	}

	p.pendingValue = false
	switch {
	case c == '"':
		p.beginString(pos, false)
		return pos + 1, true
	case c == '{':
		return p.beginContainer(pos, Object, true)
	case c == '[':
		return p.beginContainer(pos, Array, false)
	case c == '-' || isDigit(c):
		p.state = stateInNumber
		p.pendingOffset = p.consumed + pos
		p.pendingLen = 1
		p.resetNumberState()
		p.numHasDigit = isDigit(c)
		p.numIsNegative = c == '-'
		if isDigit(c) {
			p.numIntPartDigits = 1
			p.numIntPartLeadingZero = c == '0'
		}
		return pos + 1, true
	case c == 't':
		p.pendingLiteral, p.literalMatched = litTrue, 1
		p.pendingOffset = p.consumed + pos
		p.state = stateInLiteral
		return pos + 1, true
	case c == 'f':
		p.pendingLiteral, p.literalMatched = litFalse, 1
		p.pendingOffset = p.consumed + pos
		p.state = stateInLiteral
		return pos + 1, true
	case c == 'n':
		p.pendingLiteral, p.literalMatched = litNull, 1
		p.pendingOffset = p.consumed + pos
		p.state = stateInLiteral
		return pos + 1, true
	default:
		return p.fail(ErrUnexpected, pos)
	}
}

func (p *Parser) beginString(pos int, isKey bool) {
	p.state = stateInString
	p.isKeyString = isKey
	p.pendingOffset = p.consumed + pos + 1
	p.pendingLen = 0
	p.pendingHash = 0
	p.inEscape = false
}

func (p *Parser) beginContainer(pos int, typ NodeType, expectingKey bool) (int, bool) {
	idx, ok := p.store.Append(Node{Type: typ, Offset: uint32(p.consumed + pos)})
	if !ok {
		return p.fail(ErrCapacity, pos)
	}
	p.incrementEnclosingChildren()
	if !p.pushStack(stackEntry{node: idx, expectingKey: expectingKey}) {
		return p.fail(ErrCapacity, pos)
	}
	return pos + 1, true
}
