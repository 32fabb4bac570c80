package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pixelveil/pixelveil/internal/hashkit"
)

func main() {
	alg := flag.String("alg", "md5", "Algorithm: "+strings.Join(algorithmNames(), ", "))
	text := flag.String("text", "", "Text to hash")
	inputFile := flag.String("input", "", "File to hash instead of -text")
	all := flag.Bool("all", false, "Print digests under every algorithm")
	flag.Parse()

	input := *text
	switch {
	case *inputFile != "":
		data, err := os.ReadFile(*inputFile)
		if err != nil {
			log.Fatalf("❌ Error reading file: %v", err)
		}
		input = string(data)
	case input == "" && flag.NArg() > 0:
		input = strings.Join(flag.Args(), " ")
	}
	if input == "" && *inputFile == "" {
		log.Fatal("❌ Please provide -text, -input, or a positional argument")
	}

	if *all {
		for _, a := range hashkit.Algorithms() {
			digest, err := hashkit.Digest(a, input)
			if err != nil {
				log.Fatalf("❌ %v", err)
			}
			fmt.Printf("%-8s %s\n", a, digest)
		}
		return
	}

	algorithm, err := hashkit.ParseAlgorithm(*alg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	digest, err := hashkit.Digest(algorithm, input)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println(digest)
}

func algorithmNames() []string {
	algs := hashkit.Algorithms()
	names := make([]string, len(algs))
	for i, a := range algs {
		names[i] = string(a)
	}
	return names
}
