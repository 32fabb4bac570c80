package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pixelveil/pixelveil/internal/bitstream"
	"github.com/pixelveil/pixelveil/internal/envelope"
	"github.com/pixelveil/pixelveil/internal/stego"
)

func main() {
	scheme := flag.String("scheme", "lsb", "Stego scheme: "+schemeList())
	message := flag.String("message", "", "Message text to hide")
	inputFile := flag.String("input", "", "Read message from file instead of -message")
	carrierFile := flag.String("carrier", "", "Carrier PNG (LSB family; blank canvas if omitted)")
	outputFile := flag.String("output", "stego.png", "Output PNG file")
	intermediateFile := flag.String("intermediate", "", "Also write the intermediate payload (randomdot/morse)")
	key := flag.String("key", "", "Pattern key (pattern/md5pattern schemes)")
	password := flag.String("password", "", "Password (prompt if not provided)")
	width := flag.Int("width", 256, "Blank canvas width")
	height := flag.Int("height", 256, "Blank canvas height")
	analyze := flag.Bool("analyze", false, "Show carrier analysis after encoding")
	flag.Parse()

	fmt.Println("\n🔐 PixelVeil Encoder")
	fmt.Println("=" + strings.Repeat("=", 40))

	codec, ok := stego.Get(stego.SchemeID(*scheme))
	if !ok {
		log.Fatalf("❌ Unknown scheme %q (have: %s)", *scheme, schemeList())
	}
	fmt.Printf("\n🧩 Scheme: %s (%s)\n", codec.ID(), codec.Describe())

	text := *message
	if *inputFile != "" {
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			log.Fatalf("❌ Error reading input file: %v", err)
		}
		text = string(data)
		fmt.Printf("📄 Input file: %s (%d bytes)\n", *inputFile, len(data))
	}
	if text == "" {
		log.Fatal("❌ Please provide a message with -message or -input")
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = envelope.PromptNewPassword()
		if err != nil {
			log.Fatalf("❌ Password error: %v", err)
		}
	}

	req := stego.EncodeRequest{
		Message:  text,
		Password: pass,
		Key:      *key,
	}

	// The LSB family needs a carrier; synthetic schemes build their own.
	switch codec.ID() {
	case stego.SchemeLSB, stego.SchemePattern, stego.SchemeKeyedPattern:
		carrier, err := loadCarrier(*carrierFile, *width, *height)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		req.Carrier = carrier
		fmt.Printf("🖼️  Carrier: %dx%d (%d bits capacity)\n",
			carrier.Width, carrier.Height, codec.CapacityBits(carrier))
	}

	artifact, err := codec.Encode(req)
	if err != nil {
		log.Fatalf("❌ Encoding failed: %v", err)
	}

	if *analyze {
		report := stego.AnalyzeSurface(artifact.Surface)
		fmt.Printf("\n📊 Carrier analysis:\n")
		fmt.Printf("   LSB zero ratio: %.4f\n", report.ZeroRatio)
		fmt.Printf("   LSB entropy:    %.4f bits/byte\n", report.Entropy)
	}

	data, err := stego.EncodeImageBytes(artifact.Surface)
	if err != nil {
		log.Fatalf("❌ PNG encoding failed: %v", err)
	}
	if err := os.WriteFile(*outputFile, data, 0o644); err != nil {
		log.Fatalf("❌ Cannot write output file: %v", err)
	}

	if artifact.Intermediate != "" && *intermediateFile != "" {
		if err := os.WriteFile(*intermediateFile, []byte(artifact.Intermediate), 0o644); err != nil {
			log.Fatalf("❌ Cannot write intermediate file: %v", err)
		}
		fmt.Printf("📝 Intermediate payload: %s (%d chars)\n",
			*intermediateFile, len(artifact.Intermediate))
	}

	fmt.Printf("\n✅ Encoding complete!\n")
	fmt.Printf("   Output: %s (%dx%d)\n", *outputFile, artifact.Surface.Width, artifact.Surface.Height)
	fmt.Printf("   Security: AES-256-GCM + PBKDF2-%d\n", envelope.Iterations)
	fmt.Printf("\n🔓 To decode: pixelveil decode -scheme %s with the same password\n", codec.ID())
}

// loadCarrier reads a PNG carrier or builds a blank canvas. A blank canvas is
// sized so the terminator always fits.
func loadCarrier(path string, width, height int) (*stego.Surface, error) {
	if path == "" {
		if width*height*3 < bitstream.TerminatorBits {
			return nil, fmt.Errorf("canvas %dx%d too small", width, height)
		}
		return stego.NewSurface(width, height), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading carrier: %w", err)
	}
	surface, err := stego.DecodeImageBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding carrier: %w", err)
	}
	return surface, nil
}

func schemeList() string {
	ids := stego.List()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
