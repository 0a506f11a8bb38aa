package cli

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/client/models"
)

// chooseEntity prints a numbered menu and returns the picked option, or nil
// when the user enters 0 or there is nothing to choose from.
func chooseEntity(reader *bufio.Reader, w io.Writer, title string, options []models.Entity) (*models.Entity, error) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	if len(options) == 0 {
		fmt.Fprintln(w, "No options available.")
		return nil, nil
	}

	for i, o := range options {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, o.Name)
	}
	fmt.Fprintln(w, "  [0] Back / exit")

	for {
		answer, err := GetSimpleText(reader, "Enter your choice (number):", w)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			fmt.Fprintln(w, "Invalid input, please enter a number.")
			continue
		}
		if n < 0 || n > len(options) {
			fmt.Fprintln(w, "Invalid input, please pick a number from the list.")
			continue
		}
		if n == 0 {
			return nil, nil
		}
		picked := options[n-1]
		return &picked, nil
	}
}

// parseThreshold accepts 0..1024 kWh with at most two decimals.
func parseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v > 1024 {
		return 0, fmt.Errorf("threshold must be between 0 and 1024")
	}
	if _, frac, ok := strings.Cut(s, "."); ok && len(frac) > 2 {
		return 0, fmt.Errorf("at most two decimals are allowed")
	}
	return v, nil
}
