package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pixelveil/pixelveil/internal/envelope"
	"github.com/pixelveil/pixelveil/internal/stego"
)

func main() {
	scheme := flag.String("scheme", "lsb", "Stego scheme used at encode time")
	inputFile := flag.String("input", "", "Stego PNG to decode")
	intermediateFile := flag.String("intermediate", "", "Intermediate payload file (randomdot/morse)")
	key := flag.String("key", "", "Pattern key (pattern/md5pattern schemes)")
	password := flag.String("password", "", "Password (prompt if not provided)")
	outputFile := flag.String("output", "", "Write recovered message to file instead of stdout")
	flag.Parse()

	fmt.Println("\n🔓 PixelVeil Decoder")
	fmt.Println("=" + strings.Repeat("=", 40))

	codec, ok := stego.Get(stego.SchemeID(*scheme))
	if !ok {
		log.Fatalf("❌ Unknown scheme %q", *scheme)
	}

	if *inputFile == "" && *intermediateFile == "" {
		log.Fatal("❌ Please provide -input (PNG) or -intermediate (payload file)")
	}

	req := stego.DecodeRequest{Key: *key}

	if *intermediateFile != "" {
		data, err := os.ReadFile(*intermediateFile)
		if err != nil {
			log.Fatalf("❌ Error reading intermediate file: %v", err)
		}
		req.Intermediate = strings.TrimSpace(string(data))
		fmt.Printf("\n📝 Intermediate payload: %s (%d chars)\n", *intermediateFile, len(req.Intermediate))
	} else {
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			log.Fatalf("❌ Error reading stego image: %v", err)
		}
		surface, err := stego.DecodeImageBytes(data)
		if err != nil {
			log.Fatalf("❌ Error decoding image: %v", err)
		}
		req.Carrier = surface
		fmt.Printf("\n🖼️  Stego image: %s (%dx%d)\n", *inputFile, surface.Width, surface.Height)
	}

	pass := *password
	if pass == "" {
		var err error
		pass, err = envelope.PromptPassword("\n🔑 Enter password: ")
		if err != nil {
			log.Fatalf("❌ Password error: %v", err)
		}
	}
	req.Password = pass

	message, err := codec.Decode(req)
	if err != nil {
		explainDecodeFailure(err)
	}

	fmt.Printf("\n✅ Message recovered! (%d bytes)\n", len(message))

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(message), 0o600); err != nil {
			log.Fatalf("❌ Cannot write output file: %v", err)
		}
		fmt.Printf("   Saved to: %s\n", *outputFile)
		return
	}

	fmt.Println("\n" + strings.Repeat("-", 40))
	fmt.Println(message)
	fmt.Println(strings.Repeat("-", 40))
}

// explainDecodeFailure turns the decode error taxonomy into operator-facing
// messages and exits.
func explainDecodeFailure(err error) {
	switch {
	case errors.Is(err, envelope.ErrAuthentication):
		log.Fatalf("❌ %v", envelope.ErrAuthentication)
	case errors.Is(err, stego.ErrTerminatorNotFound):
		log.Fatal("❌ No hidden payload found (terminator missing; wrong scheme or clean image?)")
	case errors.Is(err, stego.ErrEmptyPayload):
		log.Fatal("❌ Terminator found but payload is empty")
	case errors.Is(err, stego.ErrCorruptPayload):
		log.Fatal("❌ Extracted payload is corrupt (wrong key or damaged image?)")
	case errors.Is(err, envelope.ErrFormat):
		log.Fatal("❌ Extracted payload is not a valid encrypted envelope")
	default:
		log.Fatalf("❌ Decoding failed: %v", err)
	}
}
