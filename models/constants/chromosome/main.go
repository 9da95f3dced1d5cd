package chromosome

import (
	"fmt"
	"strconv"
	"strings"
)

// xpos = code * XposScale + position, where code is the 1-based
// index of the chromosome in ValidListOfHumanChromosomes.
const XposScale int64 = 1_000_000_000

func ValidListOfHumanChromosomes() []string {
	var humChroms []string
	for i := 1; i < 23; i++ {
		humChroms = append(humChroms, fmt.Sprint(i))
	}
	humChroms = append(humChroms, "X")
	humChroms = append(humChroms, "Y")
	humChroms = append(humChroms, "M")
	return humChroms
}

var chromosomeToCode = func() map[string]int64 {
	codes := map[string]int64{}
	for i, c := range ValidListOfHumanChromosomes() {
		codes[c] = int64(i + 1)
	}
	return codes
}()

// Normalize strips a "chr" prefix and folds MT into M.
func Normalize(text string) string {
	c := strings.TrimSpace(text)
	if len(c) >= 3 && strings.EqualFold(c[:3], "chr") {
		c = c[3:]
	}
	c = strings.ToUpper(c)
	if c == "MT" {
		c = "M"
	}
	return c
}

func IsValidHumanChromosome(text string) bool {
	_, ok := chromosomeToCode[Normalize(text)]
	return ok
}

func GetXpos(chrom string, pos int64) (int64, error) {
	code, ok := chromosomeToCode[Normalize(chrom)]
	if !ok {
		return 0, fmt.Errorf("invalid chromosome %q", chrom)
	}
	if pos < 1 || pos >= XposScale {
		return 0, fmt.Errorf("position %d out of range", pos)
	}
	return code*XposScale + pos, nil
}

func GetChrPos(xpos int64) (string, int64, error) {
	code := xpos / XposScale
	chroms := ValidListOfHumanChromosomes()
	if code < 1 || code > int64(len(chroms)) {
		return "", 0, fmt.Errorf("invalid xpos %d", xpos)
	}
	return chroms[code-1], xpos % XposScale, nil
}

// ParseLocus parses "chrom:start-end" into a chromosome and inclusive bounds.
func ParseLocus(text string) (string, int64, int64, error) {
	chrom, posRange, found := strings.Cut(strings.TrimSpace(text), ":")
	if !found {
		return "", 0, 0, fmt.Errorf("invalid location %q: expected chrom:start-end", text)
	}
	startText, endText, found := strings.Cut(posRange, "-")
	if !found {
		return "", 0, 0, fmt.Errorf("invalid location %q: expected chrom:start-end", text)
	}
	start, err := strconv.ParseInt(strings.ReplaceAll(startText, ",", ""), 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid start in %q: %w", text, err)
	}
	end, err := strconv.ParseInt(strings.ReplaceAll(endText, ",", ""), 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid end in %q: %w", text, err)
	}
	return chrom, start, end, nil
}
