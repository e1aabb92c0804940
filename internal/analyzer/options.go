package analyzer

// AnalysisOptions provides configuration for silhouette analysis
type AnalysisOptions struct {
	// Decoding
	AutoOrient     bool
	MaxImagePixels int

	// Segmentation
	CanonicalSize int
	BlurKernel    int

	// Estimation
	SkipModel bool
}

const (
	DefaultCanonicalSize = 256
	DefaultBlurKernel    = 5
	// DefaultMaxImagePixels admits 48 MP phone photos with some headroom.
	DefaultMaxImagePixels = 50_000_000
)

// DefaultOptions returns default analysis options. EXIF orientation is
// ignored so pixel data is analyzed as stored.
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		AutoOrient:     false,
		MaxImagePixels: DefaultMaxImagePixels,
		CanonicalSize:  DefaultCanonicalSize,
		BlurKernel:     DefaultBlurKernel,
		SkipModel:      false,
	}
}

// HeuristicOnlyOptions returns options that ignore any loaded model
func HeuristicOnlyOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.SkipModel = true
	return opts
}

// WithCanonicalSize sets the square resolution images are resized to before thresholding
func (opts AnalysisOptions) WithCanonicalSize(size int) AnalysisOptions {
	if size > 0 {
		opts.CanonicalSize = size
	}
	return opts
}

// WithBlurKernel sets the Gaussian kernel size applied before thresholding.
// Even sizes are rejected; 0 or 1 disables smoothing.
func (opts AnalysisOptions) WithBlurKernel(size int) AnalysisOptions {
	if size == 0 || (size > 0 && size%2 == 1) {
		opts.BlurKernel = size
	}
	return opts
}

// WithAutoOrient toggles applying the EXIF orientation tag on decode
func (opts AnalysisOptions) WithAutoOrient(enabled bool) AnalysisOptions {
	opts.AutoOrient = enabled
	return opts
}

// WithMaxImagePixels caps width*height of accepted images; 0 removes the cap
func (opts AnalysisOptions) WithMaxImagePixels(n int) AnalysisOptions {
	if n >= 0 {
		opts.MaxImagePixels = n
	}
	return opts
}

// WithoutModel disables model blending
func (opts AnalysisOptions) WithoutModel() AnalysisOptions {
	opts.SkipModel = true
	return opts
}
