package port

import "github.com/sfexams/store/internal/domain"

// ContentGenerator produces the downloadable artifact for a product.
// It is pure and side-effect free.
type ContentGenerator interface {
	Generate(product domain.Product) domain.Artifact
}
