package utils

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
)

// CampusImportResult summarises a campus CSV import
type CampusImportResult struct {
	TotalRows          int      `json:"totalRows"`
	UniversitiesSeeded int      `json:"universitiesSeeded"`
	HallsSeeded        int      `json:"hallsSeeded"`
	Errors             []string `json:"errors"`
}

// CampusImporter loads universities and residence halls from CSV
type CampusImporter struct {
	campusRepo repositories.CampusRepository
}

// NewCampusImporter creates a new CampusImporter
func NewCampusImporter(campusRepo repositories.CampusRepository) *CampusImporter {
	return &CampusImporter{campusRepo: campusRepo}
}

// ImportCampuses reads rows of university / residence hall names. The hall
// column is optional; a row without a hall only seeds its university.
func (i *CampusImporter) ImportCampuses(ctx context.Context, r io.Reader) (*CampusImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	uniIdx := findColumnIndex(header, []string{"University", "University Name", "Campus", "School"})
	hallIdx := findColumnIndex(header, []string{"Residence Hall", "Residence", "Hall", "Dorm"})
	if uniIdx == -1 {
		return nil, fmt.Errorf("university column not found in CSV")
	}

	result := &CampusImportResult{Errors: []string{}}
	seenUni := map[string]bool{}
	seenHall := map[string]bool{}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		uniName := cell(row, uniIdx)
		uniID := Slugify(uniName)
		if uniID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: no university found", result.TotalRows))
			continue
		}

		if !seenUni[uniID] {
			if err := i.campusRepo.UpsertUniversity(ctx, &models.University{ID: uniID, Name: uniName}); err != nil {
				return result, fmt.Errorf("failed to upsert university %s: %w", uniID, err)
			}
			seenUni[uniID] = true
			result.UniversitiesSeeded++
		}

		hallName := cell(row, hallIdx)
		if hallName == "" {
			continue
		}
		hallID := uniID + "-" + Slugify(hallName)
		if seenHall[hallID] {
			continue
		}
		hall := &models.ResidenceHall{ID: hallID, Name: hallName, University: uniID}
		if err := i.campusRepo.UpsertResidenceHall(ctx, hall); err != nil {
			return result, fmt.Errorf("failed to upsert residence hall %s: %w", hallID, err)
		}
		seenHall[hallID] = true
		result.HallsSeeded++
	}

	return result, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findColumnIndex finds the index of a column by any of its accepted names
func findColumnIndex(header []string, possibleNames []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}
