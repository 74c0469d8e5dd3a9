// Package acquirer is the boundary between the pipeline driver and whatever
// actually gets UniProt release files onto disk. The core only ever talks
// to the Acquirer interface; it never downloads anything itself.
package acquirer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperrors "github.com/nishad/uniprotetl/internal/errors"
	"github.com/nishad/uniprotetl/internal/loader"
)

// Acquirer answers what release is available to load. A real deployment
// would fetch reldate.txt and the checksum file over HTTP the way
// extractor.py does; this repo ships a LocalAcquirer instead, since
// downloading and verifying the source files is outside the core's scope.
type Acquirer interface {
	GetReleaseInfo(ctx context.Context) (loader.ReleaseInfo, error)
}

// SourceFileNames are the two files a dataset run expects to find under a
// data directory before the Transformer starts.
var SourceFileNames = map[string]string{
	"swissprot": "uniprot_sprot.xml.gz",
	"trembl":    "uniprot_trembl.xml.gz",
}

// releaseInfoFixture is the on-disk shape of the local release-info file,
// playing the role reldate.txt plays for a real downloader.
type releaseInfoFixture struct {
	Version             string `yaml:"version"`
	ReleaseDate         string `yaml:"release_date"`
	SwissProtEntryCount int    `yaml:"swissprot_entry_count"`
	TremblEntryCount    int    `yaml:"trembl_entry_count"`
}

// LocalAcquirer reads release metadata from a YAML fixture already present
// in the data directory, rather than fetching it from the network.
type LocalAcquirer struct {
	dataDir string
}

// NewLocalAcquirer wraps dataDir, which must contain release_info.yaml and
// the source XML files named in SourceFileNames.
func NewLocalAcquirer(dataDir string) *LocalAcquirer {
	return &LocalAcquirer{dataDir: dataDir}
}

// GetReleaseInfo reads <dataDir>/release_info.yaml.
func (a *LocalAcquirer) GetReleaseInfo(ctx context.Context) (loader.ReleaseInfo, error) {
	path := filepath.Join(a.dataDir, "release_info.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return loader.ReleaseInfo{}, apperrors.E(apperrors.Op("acquirer.GetReleaseInfo"), apperrors.KindConfig,
			fmt.Errorf("reading %s: %w", path, err))
	}

	var fixture releaseInfoFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return loader.ReleaseInfo{}, apperrors.E(apperrors.Op("acquirer.GetReleaseInfo"), apperrors.KindConfig,
			fmt.Errorf("parsing %s: %w", path, err))
	}
	if fixture.Version == "" {
		return loader.ReleaseInfo{}, apperrors.E(apperrors.Op("acquirer.GetReleaseInfo"), apperrors.KindConfig,
			fmt.Sprintf("%s: missing version", path))
	}

	return loader.ReleaseInfo{
		Version:             fixture.Version,
		ReleaseDate:         fixture.ReleaseDate,
		SwissProtEntryCount: fixture.SwissProtEntryCount,
		TremblEntryCount:    fixture.TremblEntryCount,
	}, nil
}

// CheckSourceFiles verifies that every dataset in datasets has its source
// XML present under the Acquirer's data directory, per the "files present
// before the Transformer runs" precondition.
func (a *LocalAcquirer) CheckSourceFiles(datasets []string) error {
	for _, dataset := range datasets {
		name, ok := SourceFileNames[dataset]
		if !ok {
			return apperrors.E(apperrors.Op("acquirer.CheckSourceFiles"), apperrors.KindConfig,
				fmt.Sprintf("unknown dataset %q", dataset))
		}
		path := filepath.Join(a.dataDir, name)
		if _, err := os.Stat(path); err != nil {
			return apperrors.E(apperrors.Op("acquirer.CheckSourceFiles"), apperrors.KindConfig,
				fmt.Errorf("missing source file for dataset %q: %w", dataset, err))
		}
	}
	return nil
}

// SourcePath returns the absolute path to a dataset's source XML file.
func (a *LocalAcquirer) SourcePath(dataset string) (string, error) {
	name, ok := SourceFileNames[dataset]
	if !ok {
		return "", apperrors.E(apperrors.Op("acquirer.SourcePath"), apperrors.KindConfig,
			fmt.Sprintf("unknown dataset %q", dataset))
	}
	return filepath.Join(a.dataDir, name), nil
}
