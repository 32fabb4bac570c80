package stego

import (
	"fmt"
	"strings"

	"github.com/pixelveil/pixelveil/internal/bitstream"
	"github.com/pixelveil/pixelveil/internal/envelope"
)

const (
	// unitSize is the side length in pixels of one Morse timing unit.
	unitSize = 6
	// unitsPerRow fixes how many timing units fit on a grid row before the
	// sequence wraps.
	unitsPerRow = 120

	// Morse timing: a dit is one black unit, a dah three; elements within a
	// character are separated by one white unit, characters by three.
	ditUnits     = 1
	dahUnits     = 3
	charGapUnits = 3
)

// morseTable maps each hex nibble to its Morse code.
var morseTable = map[byte]string{
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".", 'f': "..-.",
}

// morseReverse is the inverted table, built once at init.
var morseReverse = func() map[string]byte {
	m := make(map[string]byte, len(morseTable))
	for nibble, code := range morseTable {
		m[code] = nibble
	}
	return m
}()

func init() {
	Register(&morseScheme{})
}

// morseScheme hex-encodes the encrypted payload and renders each nibble as
// Morse timing units on a monochrome grid, wrapped at a fixed unit count per
// row. The hex string is exported as an intermediate payload usable in place
// of the image.
type morseScheme struct{}

func (s *morseScheme) ID() SchemeID { return SchemeMorse }

func (s *morseScheme) Describe() string {
	return "synthetic Morse-grid rendering of the hex-encoded payload"
}

// CapacityBits is unbounded: the canvas is sized from the payload.
func (s *morseScheme) CapacityBits(*Surface) int { return -1 }

func (s *morseScheme) Encode(req EncodeRequest) (*Artifact, error) {
	if req.Message == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: message and password are required", ErrInputMissing)
	}
	sealed, err := envelope.Encrypt(req.Message, req.Password)
	if err != nil {
		return nil, err
	}
	hexPayload := bitstream.BytesToHex([]byte(sealed))

	units, err := unitsFromHex(hexPayload)
	if err != nil {
		return nil, err
	}

	rows := (len(units) + unitsPerRow - 1) / unitsPerRow
	surface := NewSurface(unitsPerRow*unitSize, rows*unitSize)
	for i, dark := range units {
		if dark {
			col := i % unitsPerRow
			row := i / unitsPerRow
			surface.fillRect(col*unitSize, row*unitSize, unitSize, unitSize, 0x00)
		}
	}

	return &Artifact{Scheme: s.ID(), Surface: surface, Intermediate: hexPayload}, nil
}

func (s *morseScheme) Decode(req DecodeRequest) (string, error) {
	if req.Intermediate != "" {
		return s.decodeHex(req.Intermediate, req.Password)
	}
	if req.Carrier == nil {
		return "", fmt.Errorf("%w: morse image or intermediate hex string is required", ErrInputMissing)
	}

	units := scanUnits(req.Carrier)
	hexPayload, err := hexFromUnits(units)
	if err != nil {
		return "", err
	}
	return s.decodeHex(hexPayload, req.Password)
}

// decodeHex reverses the hex encoding and decrypts, bypassing the grid.
func (s *morseScheme) decodeHex(hexPayload, password string) (string, error) {
	if hexPayload == "" {
		return "", ErrEmptyPayload
	}
	raw, err := bitstream.HexToBytes(strings.ToLower(hexPayload))
	if err != nil {
		return "", ErrCorruptPayload
	}
	return envelope.Decrypt(string(raw), password)
}

// unitsFromHex expands a hex string into the black/white timing sequence.
func unitsFromHex(hexPayload string) ([]bool, error) {
	var units []bool
	for i := 0; i < len(hexPayload); i++ {
		code, ok := morseTable[hexPayload[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a hex nibble", ErrCorruptPayload, hexPayload[i])
		}
		for si := 0; si < len(code); si++ {
			if si > 0 {
				units = append(units, false) // element gap
			}
			n := ditUnits
			if code[si] == '-' {
				n = dahUnits
			}
			for u := 0; u < n; u++ {
				units = append(units, true)
			}
		}
		for u := 0; u < charGapUnits; u++ {
			units = append(units, false)
		}
	}
	return units, nil
}

// scanUnits reads the grid back into a timing sequence, sampling the center
// of each unit cell row-major. The sequence is continuous across row wraps.
func scanUnits(surface *Surface) []bool {
	cols := surface.Width / unitSize
	rows := surface.Height / unitSize
	units := make([]bool, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			units = append(units, surface.isDark(col*unitSize+unitSize/2, row*unitSize+unitSize/2))
		}
	}
	return units
}

// hexFromUnits reconstructs the hex string from a timing sequence by
// run-length analysis: a black run of one unit is a dit, of three a dah; a
// white run of three or more ends a character. Trailing white padding from
// the last grid row is ignored.
func hexFromUnits(units []bool) (string, error) {
	// Trim trailing white.
	end := len(units)
	for end > 0 && !units[end-1] {
		end--
	}
	if end == 0 {
		return "", ErrEmptyPayload
	}
	units = units[:end]

	var hexPayload strings.Builder
	var symbol strings.Builder

	flush := func() error {
		if symbol.Len() == 0 {
			return nil
		}
		nibble, ok := morseReverse[symbol.String()]
		if !ok {
			return fmt.Errorf("%w: unknown morse sequence %q", ErrCorruptPayload, symbol.String())
		}
		hexPayload.WriteByte(nibble)
		symbol.Reset()
		return nil
	}

	i := 0
	for i < len(units) {
		run := 1
		for i+run < len(units) && units[i+run] == units[i] {
			run++
		}

		if units[i] {
			switch run {
			case ditUnits:
				symbol.WriteByte('.')
			case dahUnits:
				symbol.WriteByte('-')
			default:
				return "", fmt.Errorf("%w: black run of %d units", ErrCorruptPayload, run)
			}
		} else {
			switch {
			case run >= charGapUnits:
				if err := flush(); err != nil {
					return "", err
				}
			case run == 1:
				// element gap, keep accumulating the current character
			default:
				return "", fmt.Errorf("%w: white run of %d units", ErrCorruptPayload, run)
			}
		}
		i += run
	}
	if err := flush(); err != nil {
		return "", err
	}

	return hexPayload.String(), nil
}
