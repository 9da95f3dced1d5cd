package liftover

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// block is one ungapped alignment: source [sStart, sStart+size) maps onto
// target [tStart, tStart+size), 0-based.
type block struct {
	sStart int64
	tStart int64
	size   int64

	tName   string
	tSize   int64
	reverse bool
	chain   int
}

// blockIndex holds one source chromosome's blocks sorted by start. maxEnd[i]
// is the largest block end among blocks[:i+1].
type blockIndex struct {
	blocks []block
	maxEnd []int64
}

// Converter maps positions between the two assemblies of one chain file.
type Converter struct {
	blocks map[string]*blockIndex
}

// ParseChain reads a UCSC chain file, plain or gzipped.
func ParseChain(r io.Reader) (*Converter, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip chain: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}

	byChrom := map[string][]block{}

	var (
		inChain      bool
		sName, tName string
		sPos, tPos   int64
		tSize        int64
		reverse      bool
		lineNo       int
		chainNo      int
	)

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == "chain" {
			// chain score tName tSize tStrand tStart tEnd qName qSize qStrand qStart qEnd id
			if len(fields) < 12 {
				return nil, fmt.Errorf("line %d: short chain header", lineNo)
			}
			nums, err := parseInts(fields[3], fields[5], fields[8], fields[10])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if fields[4] != "+" {
				return nil, fmt.Errorf("line %d: unsupported source strand %q", lineNo, fields[4])
			}
			sName, sPos = fields[2], nums[1]
			tName, tSize, tPos = fields[7], nums[2], nums[3]
			reverse = fields[9] == "-"
			inChain = true
			chainNo++
			continue
		}

		if !inChain {
			return nil, fmt.Errorf("line %d: alignment data outside a chain", lineNo)
		}

		// size [dt dq]
		size, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		byChrom[sName] = append(byChrom[sName], block{
			sStart:  sPos,
			tStart:  tPos,
			size:    size,
			tName:   tName,
			tSize:   tSize,
			reverse: reverse,
			chain:   chainNo,
		})

		if len(fields) == 1 {
			inChain = false
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected size dt dq", lineNo)
		}
		gaps, err := parseInts(fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sPos += size + gaps[0]
		tPos += size + gaps[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chain: %w", err)
	}
	if len(byChrom) == 0 {
		return nil, fmt.Errorf("chain file holds no alignments")
	}

	conv := &Converter{blocks: make(map[string]*blockIndex, len(byChrom))}
	for name, blocks := range byChrom {
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].sStart < blocks[j].sStart })
		idx := &blockIndex{blocks: blocks, maxEnd: make([]int64, len(blocks))}
		var end int64
		for i, b := range blocks {
			if e := b.sStart + b.size; e > end {
				end = e
			}
			idx.maxEnd[i] = end
		}
		conv.blocks[name] = idx
	}
	return conv, nil
}

func parseInts(texts ...string) ([]int64, error) {
	out := make([]int64, len(texts))
	for i, t := range texts {
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Convert maps a 1-based position. The chromosome is matched as given and
// then with a "chr" prefix. Where chains overlap, the one listed first in
// the file wins.
func (c *Converter) Convert(chrom string, pos int64) (string, int64, bool) {
	idx, ok := c.blocks[chrom]
	if !ok {
		idx, ok = c.blocks["chr"+chrom]
	}
	if !ok || pos < 1 {
		return "", 0, false
	}

	p := pos - 1
	blocks := idx.blocks
	// blocks[:hi] start at or before p
	hi := sort.Search(len(blocks), func(i int) bool { return blocks[i].sStart > p })

	var hit *block
	for i := hi - 1; i >= 0 && idx.maxEnd[i] > p; i-- {
		b := &blocks[i]
		if p >= b.sStart+b.size {
			continue
		}
		if hit == nil || b.chain < hit.chain {
			hit = b
		}
	}
	if hit == nil {
		return "", 0, false
	}

	t := hit.tStart + (p - hit.sStart)
	if hit.reverse {
		t = hit.tSize - t - 1
	}
	return hit.tName, t + 1, true
}
