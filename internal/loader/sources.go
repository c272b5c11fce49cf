package loader

import "path/filepath"

// DefaultSources returns the reference material for each topic. These are
// the curated ADA/NIDDK/CDC pages the assistant grounds its answers in,
// plus a local nutrition table for meal questions. dataDir locates the
// bundled CSV files.
func DefaultSources(dataDir string) map[string][]Source {
	return map[string][]Source{
		"glucose": {
			NewSource("https://www.diabetes.org/healthy-living/medication-treatments/blood-glucose-testing-and-control"),
			NewSource("https://www.niddk.nih.gov/health-information/diabetes/overview/managing-diabetes/know-blood-sugar-numbers"),
		},
		"medication": {
			NewSource("https://www.diabetes.org/healthy-living/medication-treatments"),
			NewSource("https://www.niddk.nih.gov/health-information/diabetes/overview/insulin-medicines-treatments"),
		},
		"meal": {
			NewSource("https://diabetesjournals.org/care/article/40/Supplement_1/S33/36913/4-Lifestyle-Management"),
			NewSource("https://www.niddk.nih.gov/health-information/diabetes/overview/diet-eating-physical-activity"),
			NewSource(filepath.Join(dataDir, "nutritiondata.csv")),
		},
		"wellness": {
			NewSource("https://www.diabetes.org/healthy-living/mental-health"),
			NewSource("https://www.niddk.nih.gov/health-information/diabetes/overview/preventing-problems"),
		},
		"general": {
			NewSource("https://www.cdc.gov/diabetes/about/about-type-2-diabetes.html"),
			NewSource("https://www.niddk.nih.gov/health-information/diabetes/overview"),
		},
	}
}
