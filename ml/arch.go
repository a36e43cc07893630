package ml

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode"
)

// ParseArch reads layer widths such as "2 4 1" or "784,16,10".
// Each width may be followed by one separator character; reading stops at
// the first token that does not start with a digit.
func ParseArch(r io.Reader) ([]int, error) {
	br := bufio.NewReader(r)
	var arch []int
	for {
		if err := skipSpace(br); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		digits, err := readDigits(br)
		if err != nil {
			return nil, err
		}
		if len(digits) == 0 {
			break
		}
		width, err := strconv.Atoi(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrArchSyntax, len(arch), err)
		}
		arch = append(arch, width)

		// one separator, unless it is whitespace (handled by skipSpace) or EOF
		c, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if unicode.IsSpace(c) {
			if err := br.UnreadRune(); err != nil {
				return nil, err
			}
		}
	}

	if len(arch) < 2 {
		return nil, fmt.Errorf("%w: got %d layer(s)", ErrArchTooShort, len(arch))
	}
	return arch, nil
}

func ParseArchFile(path string) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseArch(file)
}

func skipSpace(br *bufio.Reader) error {
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			return err
		}
		if !unicode.IsSpace(c) {
			return br.UnreadRune()
		}
	}
}

func readDigits(br *bufio.Reader) (string, error) {
	var digits []byte
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return string(digits), nil
		}
		if err != nil {
			return "", err
		}
		if c < '0' || c > '9' {
			return string(digits), br.UnreadByte()
		}
		digits = append(digits, c)
	}
}
