// Package ocr extracts printed text from camera captures with Tesseract.
//
// Tesseract is reached through gosseract, which needs cgo and the native
// libtesseract/libleptonica libraries:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Builds without cgo still compile; their extractor reports ErrUnavailable for
// every image so the rest of the service keeps running.
//
// Captures are normalized before recognition (EXIF orientation, grayscale,
// contrast, upscaling of small frames), see Preprocess.
package ocr
