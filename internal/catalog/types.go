package catalog

import "github.com/imrishuroy/artstore-orderflow/internal/money"

// CurrentSchemaVersion is the artwork record layout written by the catalog service today.
// Records with a lower version are migrated on read.
const CurrentSchemaVersion = 2

// Dimensions is the physical size of the original work.
type Dimensions struct {
	Width  float64 `json:"width" dynamodbav:"width"`
	Height float64 `json:"height" dynamodbav:"height"`
	Unit   string  `json:"unit" dynamodbav:"unit"`
}

// Artwork is a catalog item as seen by the order flow.
type Artwork struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Price         money.Amount `json:"price"`
	PreviewImage  string       `json:"previewImage,omitempty"`
	DownloadAsset string       `json:"-"`
	Dimensions    Dimensions   `json:"dimensions"`
}

// record is the shape persisted in the artworks DynamoDB table.
//
// Version 0: no schema_version, no dimensions, download asset kept under "image".
// Version 1: sale_file_url added.
// Version 2: dimensions always present.
type record struct {
	ArtworkID     string       `dynamodbav:"artwork_id"` // PK
	Title         string       `dynamodbav:"title"`
	Price         money.Amount `dynamodbav:"price"`
	PreviewImage  string       `dynamodbav:"preview_image,omitempty"`
	SaleFileURL   string       `dynamodbav:"sale_file_url,omitempty"`
	Image         string       `dynamodbav:"image,omitempty"`
	Dimensions    *Dimensions  `dynamodbav:"dimensions,omitempty"`
	SchemaVersion int          `dynamodbav:"schema_version"`
}

func (r record) toArtwork() Artwork {
	r = r.migrate()
	return Artwork{
		ID:            r.ArtworkID,
		Title:         r.Title,
		Price:         r.Price,
		PreviewImage:  r.PreviewImage,
		DownloadAsset: r.SaleFileURL,
		Dimensions:    *r.Dimensions,
	}
}

// migrate upgrades older layouts to CurrentSchemaVersion in memory.
func (r record) migrate() record {
	if r.SchemaVersion < 1 {
		if r.SaleFileURL == "" {
			r.SaleFileURL = r.Image
		}
		if r.PreviewImage == "" {
			r.PreviewImage = r.Image
		}
	}
	if r.Dimensions == nil {
		r.Dimensions = &Dimensions{}
	}
	if r.Dimensions.Unit == "" {
		r.Dimensions.Unit = "cm"
	}
	if r.Price.Decimal.IsNegative() {
		r.Price = money.Zero
	}
	r.SchemaVersion = CurrentSchemaVersion
	return r
}

func recordFromArtwork(a Artwork) record {
	dims := a.Dimensions
	return record{
		ArtworkID:     a.ID,
		Title:         a.Title,
		Price:         a.Price,
		PreviewImage:  a.PreviewImage,
		SaleFileURL:   a.DownloadAsset,
		Dimensions:    &dims,
		SchemaVersion: CurrentSchemaVersion,
	}
}
