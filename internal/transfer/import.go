package transfer

import "fmt"

// Import reads path as format f and converts it. The error is non-nil only
// when the file cannot be read or is not parseable as a whole; bad records
// end up in Result.Diagnostics instead.
func Import(path string, f Format) (Result, error) {
	codec, err := CodecFor(f)
	if err != nil {
		return Result{}, err
	}
	raw, err := codec.Read(path)
	if err != nil {
		return Result{}, fmt.Errorf("import %s: %w", f, err)
	}
	tree, err := codec.Parse(raw)
	if err != nil {
		return Result{}, fmt.Errorf("import %s from %s: %w", f, path, err)
	}
	return Convert(Validate(tree)), nil
}
