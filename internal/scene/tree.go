package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/shatter/pkg/geometry"
)

// WriteTree prints the hierarchy of c, one node per line, children indented
// under their parent:
//
//	Wall [0] clustered
//	  Wall_000 [1] rigid geometry=0
func WriteTree(w io.Writer, c *geometry.Collection) error {
	var walk func(n, depth int) error
	walk = func(n, depth int) error {
		line := fmt.Sprintf("%s%s [%d] %s", strings.Repeat("  ", depth), c.BoneName.At(n), n, c.SimulationType.At(n))
		if g := c.TransformToGeometryIndex.At(n); g != geometry.Invalid {
			line += fmt.Sprintf(" geometry=%d", g)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, ch := range c.Children.Members(n) {
			if err := walk(int(ch), depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range c.Roots() {
		if err := walk(r, 0); err != nil {
			return err
		}
	}
	return nil
}
