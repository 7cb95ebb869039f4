package json

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	"github.com/khanhnv2901/moodscan/internal/domain/version"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

// recordDTO is the data transfer object for JSON serialization
type recordDTO struct {
	Title            string        `json:"title"`
	CVEs             []string      `json:"cves"`
	Versions         []intervalDTO `json:"versions"`
	VersionsAffected string        `json:"versions_affected"`
	Link             string        `json:"link"`
}

type intervalDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// CorpusRepository implements the vulnerability.Repository interface using JSON file storage
type CorpusRepository struct {
	file *listFile[recordDTO]
}

// NewCorpusRepository creates a corpus repository stored in dataDir/vulndb.json
func NewCorpusRepository(dataDir string) (*CorpusRepository, error) {
	file, err := newListFile[recordDTO](dataDir, consts.CorpusFilename)
	if err != nil {
		return nil, err
	}
	return &CorpusRepository{file: file}, nil
}

// Path returns the corpus file location.
func (r *CorpusRepository) Path() string {
	return r.file.path
}

// Load returns the stored corpus in file order.
func (r *CorpusRepository) Load(ctx context.Context) ([]vulnerability.Record, error) {
	dtos, err := r.file.load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", sharedErrors.ErrCorpusNotFound, r.file.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	records := make([]vulnerability.Record, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, r.fromDTO(dto))
	}
	return records, nil
}

// Replace backs up the stored corpus and writes records in its place.
func (r *CorpusRepository) Replace(ctx context.Context, records []vulnerability.Record) (snapshot.Change, error) {
	dtos := make([]recordDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, r.toDTO(rec))
	}
	return r.file.replace(dtos)
}

func (r *CorpusRepository) toDTO(rec vulnerability.Record) recordDTO {
	dto := recordDTO{
		Title:            rec.Title,
		CVEs:             append([]string{}, rec.CVEs...),
		Versions:         make([]intervalDTO, 0, len(rec.Versions)),
		VersionsAffected: rec.VersionsAffected,
		Link:             rec.Link,
	}
	for _, iv := range rec.Versions {
		dto.Versions = append(dto.Versions, intervalDTO{From: iv.From, To: iv.To})
	}
	return dto
}

func (r *CorpusRepository) fromDTO(dto recordDTO) vulnerability.Record {
	rec := vulnerability.Record{
		Title:            dto.Title,
		CVEs:             dto.CVEs,
		Versions:         make([]version.Interval, 0, len(dto.Versions)),
		VersionsAffected: dto.VersionsAffected,
		Link:             dto.Link,
	}
	if len(rec.CVEs) == 0 {
		rec.CVEs = []string{vulnerability.NoIdentifier}
	}
	for _, iv := range dto.Versions {
		rec.Versions = append(rec.Versions, version.Interval{From: iv.From, To: iv.To})
	}
	return rec
}
