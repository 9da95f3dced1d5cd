package variantsService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"varsearch/api/models"
	"varsearch/api/models/constants"
	"varsearch/api/models/constants/chromosome"
	genomeBuild "varsearch/api/models/constants/genome-build"
	"varsearch/api/services/liftover"
	"varsearch/api/utils"

	"go.uber.org/zap"
)

type fakeDatasets struct {
	families map[string]*models.Dataset
	projects map[string]*models.Dataset
}

func (f *fakeDatasets) GetFamilyDataset(ctx context.Context, projectId string, familyId string) (*models.Dataset, error) {
	return f.families[projectId+"/"+familyId], nil
}

func (f *fakeDatasets) GetProjectDataset(ctx context.Context, projectId string) (*models.Dataset, error) {
	return f.projects[projectId], nil
}

type fakeIndividuals struct {
	families map[string][]string
	projects map[string][]string
}

func (f *fakeIndividuals) GetFamilyIndividualIds(ctx context.Context, projectId string, familyId string) ([]string, error) {
	return f.families[projectId+"/"+familyId], nil
}

func (f *fakeIndividuals) GetProjectIndividualIds(ctx context.Context, projectId string) ([]string, error) {
	return f.projects[projectId], nil
}

type fakeGenes struct {
	genes   map[string]*models.GeneSummary
	failing map[string]bool
	calls   []string
}

func (f *fakeGenes) GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error) {
	f.calls = append(f.calls, geneId)
	if f.failing[geneId] {
		return nil, errors.New("genes index unavailable")
	}
	return f.genes[geneId], nil
}

type fakeDiseaseGenes struct {
	lists   map[string][]string
	failing bool
	calls   int
}

func (f *fakeDiseaseGenes) GetDiseaseGeneLists(ctx context.Context, projectId string, geneId string) ([]string, error) {
	f.calls++
	if f.failing {
		return nil, errors.New("gene list lookup failed")
	}
	return f.lists[geneId], nil
}

type fakeNotesTags struct {
	notes   []models.VariantNote
	tags    []models.VariantTag
	failing bool
	keys    []string
}

func (f *fakeNotesTags) GetVariantNotes(ctx context.Context, projectId string, familyId string, xpos int64, ref string, alt string) ([]models.VariantNote, error) {
	f.keys = append(f.keys, fmt.Sprintf("%s/%s/%d/%s/%s", projectId, familyId, xpos, ref, alt))
	if f.failing {
		return nil, errors.New("notes table unavailable")
	}
	return f.notes, nil
}

func (f *fakeNotesTags) GetVariantTags(ctx context.Context, projectId string, familyId string, xpos int64, ref string, alt string) ([]models.VariantTag, error) {
	if f.failing {
		return nil, errors.New("tags table unavailable")
	}
	return f.tags, nil
}

// fakeLiftover shifts every position by a fixed offset.
type fakeLiftover struct {
	offset int64
}

func (f *fakeLiftover) Convert(ctx context.Context, from constants.GenomeBuild, chrom string, pos int64) (liftover.Coordinate, bool) {
	return liftover.Coordinate{Chrom: chromosome.Normalize(chrom), Pos: pos + f.offset}, true
}

// unavailableLiftover is a real service whose chain data cannot be loaded.
func unavailableLiftover() *liftover.Service {
	cfg := &models.Config{}
	cfg.Liftover.Enabled = true
	cfg.Liftover.Grch37ToGrch38Chain = "https://hgdownload.invalid/hg19ToHg38.over.chain.gz"
	cfg.Liftover.Grch38ToGrch37Chain = "https://hgdownload.invalid/hg38ToHg19.over.chain.gz"
	return liftover.NewServiceWithLoader(cfg, zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
		return nil, errors.New("no network access")
	})
}

var grch37Dataset = models.Dataset{IndexName: "fam1_grch37", GenomeBuild: genomeBuild.GRCh37}

// variantHit builds a variant index document the way the loader writes them.
func variantHit(chrom string, pos int64, ref string, alt string, numAlts map[string]interface{}) map[string]interface{} {
	xpos, err := chromosome.GetXpos(chrom, pos)
	if err != nil {
		panic(err)
	}
	hit := map[string]interface{}{
		"contig":    chrom,
		"start":     float64(pos),
		"end":       float64(pos + int64(len(ref)) - 1),
		"ref":       ref,
		"alt":       alt,
		"xpos":      float64(xpos),
		"variantId": strings.Join([]string{chrom, fmt.Sprint(pos), ref, alt}, "-"),
	}
	for individualId, numAlt := range numAlts {
		hit[utils.EncodeFieldName(individualId)+"_num_alt"] = numAlt
	}
	return hit
}
