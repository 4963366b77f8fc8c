package revlines_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccollicutt/revlog/pkg/revlines"
)

func ExampleReader_All() {
	r, err := revlines.New(strings.NewReader("first\nsecond\r\nthird\n"))
	if err != nil {
		panic(err)
	}

	for line, err := range r.All(context.Background()) {
		if err != nil {
			panic(err)
		}
		fmt.Println(string(line))
	}
	// Output:
	// third
	// second
	// first
}
