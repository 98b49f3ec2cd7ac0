package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type Product struct {
	ID              uuid.UUID
	ExamName        string
	ExamCode        *string
	Description     string
	Price           Money
	DifficultyLevel string

	CreatedAt time.Time
}

// ProductSummary is the slice of product data embedded into cart lines,
// order listings and download listings.
type ProductSummary struct {
	ID              uuid.UUID
	ExamName        string
	ExamCode        *string
	Price           Money
	DifficultyLevel string
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		ExamName:        p.ExamName,
		ExamCode:        p.ExamCode,
		Price:           p.Price,
		DifficultyLevel: p.DifficultyLevel,
	}
}

// FileName derives a safe attachment name from the exam name,
// e.g. "Platform Developer I" -> "platform_developer_i.pdf".
func (p Product) FileName() string {
	var b strings.Builder
	for _, r := range strings.ToLower(p.ExamName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String() + ".pdf"
}
