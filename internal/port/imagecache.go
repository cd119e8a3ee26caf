package port

// Variant selects one of the two flat cache directories.
type Variant string

const (
	VariantEmpty  Variant = "empty"
	VariantFilled Variant = "filled"
)

// ImageCache resolves cached floorplan rasters by filename.
type ImageCache interface {
	// Get returns the cached bytes and content type for a filename.
	// A missing file is reported as ErrNotCached by implementations,
	// distinct from real IO failures.
	Get(variant Variant, filename string) ([]byte, string, error)

	// List returns the cached filenames for a variant, sorted.
	List(variant Variant) ([]string, error)
}
