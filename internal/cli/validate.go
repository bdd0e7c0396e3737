package cli

import (
	"flag"
	"fmt"

	"github.com/jmaddaus/cairn/internal/graph"
	"github.com/jmaddaus/cairn/internal/input"
)

func runValidate(args []string, gf globalFlags) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cairn validate <input-file>")
	}

	doc, digest, err := input.Load(fs.Arg(0))
	if err != nil {
		return validationErr(err)
	}
	if err := prepareDocument(doc); err != nil {
		return validationErr(err)
	}

	g, err := graph.Build(doc.Issues)
	if err != nil {
		return validationErr(err)
	}

	fmt.Printf("%s: %d issue(s), %d root(s), input digest %s\n\n",
		doc.Repository, g.Len(), len(g.Roots()), digest[:12])
	printTree(g)
	fmt.Println(passStyle.Render("\n✓ input is valid"))
	return nil
}
