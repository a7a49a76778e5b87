package printf

import (
	"io"
	"strconv"

	"github.com/wippyai/acpica-host/errors"
)

var errNoVerb = []byte("%!(NOVERB)")

// Args yields successive variadic arguments.
type Args interface {
	Int() int32
	Uint() uint32
	Pointer() uint32
	String() []byte
}

type spec struct {
	minus, plus, space, zero, alt bool
	hasPrec                       bool
	width, prec                   int
}

type printer struct {
	w   io.Writer
	n   int
	err error
}

func (p *printer) write(b []byte) {
	if p.err != nil || len(b) == 0 {
		return
	}
	n, err := p.w.Write(b)
	p.n += n
	p.err = err
}

func (p *printer) repeat(ch byte, count int) {
	if count <= 0 {
		return
	}
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = ch
	}
	p.write(buf)
}

// pad writes body justified within the field width.
func (p *printer) pad(s spec, body []byte) {
	fill := s.width - len(body)
	if s.minus {
		p.write(body)
		p.repeat(' ', fill)
		return
	}
	p.repeat(' ', fill)
	p.write(body)
}

// Fprintf formats args according to format and writes the result to w
// incrementally. It returns the number of bytes written and the first write
// error encountered.
func Fprintf(w io.Writer, format []byte, args Args) (int, error) {
	p := &printer{w: w}
	var blockStart, i int

	for i < len(format) {
		if format[i] != '%' {
			i++
			continue
		}
		p.write(format[blockStart:i])
		i++

		var s spec
	parseFlags:
		for ; i < len(format); i++ {
			switch format[i] {
			case '-':
				s.minus = true
			case '+':
				s.plus = true
			case ' ':
				s.space = true
			case '0':
				s.zero = true
			case '#':
				s.alt = true
			default:
				break parseFlags
			}
		}

		if i < len(format) && format[i] == '*' {
			width := int(args.Int())
			if width < 0 {
				s.minus = true
				width = -width
			}
			s.width = width
			i++
		} else {
			for ; i < len(format) && isDigit(format[i]); i++ {
				s.width = s.width*10 + int(format[i]-'0')
			}
		}

		if i < len(format) && format[i] == '.' {
			i++
			s.hasPrec = true
			if i < len(format) && format[i] == '*' {
				prec := int(args.Int())
				if prec < 0 {
					s.hasPrec = false
				} else {
					s.prec = prec
				}
				i++
			} else {
				for ; i < len(format) && isDigit(format[i]); i++ {
					s.prec = s.prec*10 + int(format[i]-'0')
				}
			}
		}

		if i >= len(format) {
			p.write(errNoVerb)
			blockStart = i
			break
		}

		verb := format[i]
		i++
		p.convert(verb, s, args)
		blockStart = i
	}

	p.write(format[blockStart:])
	return p.n, p.err
}

func (p *printer) convert(verb byte, s spec, args Args) {
	switch verb {
	case '%':
		p.write([]byte{'%'})
	case 'c':
		p.pad(s, []byte{byte(args.Int())})
	case 'd', 'i':
		v := int64(args.Int())
		neg := v < 0
		if neg {
			v = -v
		}
		p.integer(s, neg, uint64(v), 10, false, true)
	case 'u':
		p.integer(s, false, uint64(args.Uint()), 10, false, false)
	case 'o':
		p.integer(s, false, uint64(args.Uint()), 8, false, false)
	case 'x':
		p.integer(s, false, uint64(args.Uint()), 16, false, false)
	case 'X':
		p.integer(s, false, uint64(args.Uint()), 16, true, false)
	case 'p':
		ptr := args.Pointer()
		p.pad(s, append([]byte("0x"), strconv.FormatUint(uint64(ptr), 16)...))
	case 's':
		str := args.String()
		if s.hasPrec && s.prec < len(str) {
			str = str[:s.prec]
		}
		p.pad(s, str)
	case 'h', 'l', 'j', 'z', 't', 'L', 'q':
		errors.Fatal(errors.PhaseFormat, "printf", "length modifier %q is not supported", verb)
	case 'f', 'F', 'e', 'E', 'g', 'G', 'a', 'A':
		errors.Fatal(errors.PhaseFormat, "printf", "floating point conversion %%%c cannot be read from a va_list", verb)
	case 'n':
		errors.Fatal(errors.PhaseFormat, "printf", "conversion %s is not supported", "%n")
	default:
		errors.Fatal(errors.PhaseFormat, "printf", "unknown conversion %q", verb)
	}
}

func (p *printer) integer(s spec, neg bool, u uint64, base int, upper, signed bool) {
	digits := []byte(strconv.FormatUint(u, base))
	if upper {
		for i, c := range digits {
			if c >= 'a' && c <= 'f' {
				digits[i] = c - 'a' + 'A'
			}
		}
	}
	if s.hasPrec {
		if s.prec == 0 && u == 0 {
			digits = digits[:0]
		}
		if fill := s.prec - len(digits); fill > 0 {
			digits = append(zeros(fill), digits...)
		}
	}

	var prefix []byte
	switch {
	case neg:
		prefix = append(prefix, '-')
	case signed && s.plus:
		prefix = append(prefix, '+')
	case signed && s.space:
		prefix = append(prefix, ' ')
	}
	if s.alt {
		switch {
		case base == 8:
			prefix = append(prefix, '0', 'o')
		case base == 16 && upper:
			prefix = append(prefix, '0', 'X')
		case base == 16:
			prefix = append(prefix, '0', 'x')
		}
	}

	if s.zero && !s.minus && !s.hasPrec {
		if fill := s.width - len(prefix) - len(digits); fill > 0 {
			digits = append(zeros(fill), digits...)
		}
	}
	p.pad(s, append(prefix, digits...))
}

func zeros(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return b
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
