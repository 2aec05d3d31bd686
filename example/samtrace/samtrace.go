package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/swdee/go-samtrace"
	"github.com/swdee/go-samtrace/postprocess"
	"github.com/swdee/go-samtrace/preprocess"
	"github.com/swdee/go-samtrace/render"
	"gocv.io/x/gocv"
)

// auxScores are the per channel score arrays of a multi mask model run
type auxScores struct {
	Areas         []float32 `json:"areas"`
	UncertainIoUs []float32 `json:"uncertain_ious"`
	IoUs          []float32 `json:"ious"`
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	maskFile := flag.String("mask", "", "Grayscale mask image to trace")
	allFile := flag.String("all", "", "All objects JSON payload with RLE encoded masks")
	decodedDir := flag.String("decoded", "", "Optional directory to write the decoded -all masks to as PNG")
	tensorFile := flag.String("tensor", "", "Raw little endian float32 multi mask tensor file")
	f16 := flag.Bool("f16", false, "The -tensor file holds float16 values")
	dims := flag.String("dims", "4,256,256", "Tensor dimensions as C,H,W")
	maskSet := flag.String("masks", "", "Comma separated grayscale mask images forming a multi mask output, default mask first")
	auxFile := flag.String("aux", "", "JSON file with areas, uncertain_ious and ious arrays for -tensor and -masks")
	width := flag.Int("w", 0, "Target display width, defaults to the mask width")
	height := flag.Int("h", 0, "Target display height, defaults to the mask height")
	offset := flag.Float64("offset", 0, "Grow (or shrink when negative) outlines by this many display units")
	eight := flag.Bool("8", false, "Trace with eight connectivity")
	workers := flag.Int("workers", runtime.NumCPU(), "Number of goroutines tracing -all masks")
	saveFile := flag.String("o", "out.svg", "The output SVG file")
	pngFile := flag.String("png", "", "Optional PNG preview of the rasterized outlines")

	flag.Parse()

	params := postprocess.SAMDefaultParams()
	params.OutlineOffset = *offset

	if *eight {
		params.Tracer.Connectivity = postprocess.EightConnected
	}

	sam := postprocess.NewSAM(params)

	start := time.Now()

	var paths []samtrace.VectorPath
	var size samtrace.Size
	var err error

	switch {
	case *maskFile != "":
		paths, size, err = traceMaskFile(sam, *maskFile, *width, *height)
	case *allFile != "":
		paths, size, err = traceAllObjects(params, *workers, *allFile, *decodedDir, *width, *height)
	case *tensorFile != "":
		paths, size, err = traceTensor(sam, *tensorFile, *f16, *dims, *auxFile, *width, *height)
	case *maskSet != "":
		paths, size, err = traceMaskSet(sam, strings.Split(*maskSet, ","), *auxFile, *width, *height)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("Error tracing outlines: ", err)
	}

	log.Printf("Traced %d outlines in %s\n", len(paths), time.Since(start).String())

	for i, p := range paths {
		log.Printf("outline %d: loops=%d vertices=%d area=%.1f\n",
			i, len(p.Loops), p.NumVertices(), p.Area())
	}

	doc := render.SVGDocument(paths, size)

	if err := os.WriteFile(*saveFile, []byte(doc), 0644); err != nil {
		log.Fatal("Failed to save SVG: ", err)
	}

	log.Printf("Saved outlines to %s\n", *saveFile)

	if *pngFile != "" {
		if err := savePreview(*pngFile, paths, size); err != nil {
			log.Fatal("Failed to save preview: ", err)
		}

		log.Printf("Saved preview to %s\n", *pngFile)
	}
}

// targetSize returns the display size, falling back to the mask size for any
// dimension not set
func targetSize(w, h, maskW, maskH int) samtrace.Size {

	if w <= 0 {
		w = maskW
	}

	if h <= 0 {
		h = maskH
	}

	return samtrace.Size{Width: w, Height: h}
}

// traceMaskFile traces a mask stored as an image file
func traceMaskFile(sam *postprocess.SAM, file string, w, h int) ([]samtrace.VectorPath, samtrace.Size, error) {

	img := gocv.IMRead(file, gocv.IMReadGrayScale)

	if img.Empty() {
		return nil, samtrace.Size{}, fmt.Errorf("error reading image from: %s", file)
	}

	defer img.Close()

	mask, err := preprocess.MaskFromMat(img, 127)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	size := targetSize(w, h, mask.Width, mask.Height)

	path, err := sam.SingleMask(mask.Data, mask.Height, mask.Width, size)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	return []samtrace.VectorPath{path}, size, nil
}

// traceAllObjects traces every mask of an all objects JSON payload using a
// pool of post processors
func traceAllObjects(params postprocess.SAMParams, workers int, file, decodedDir string,
	w, h int) ([]samtrace.VectorPath, samtrace.Size, error) {

	fh, err := os.Open(file)

	if err != nil {
		return nil, samtrace.Size{}, fmt.Errorf("error opening payload: %w", err)
	}

	defer fh.Close()

	payload, err := postprocess.ParseAllObjects(fh)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	if len(payload.Masks) == 0 {
		return nil, samtrace.Size{}, fmt.Errorf("payload %s contains no masks", file)
	}

	rle := postprocess.NewRLE(params.RLE)

	// decode the first mask to learn the image width
	first, err := rle.Decode(payload.Masks[0].Counts, payload.ImageHeight)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	if decodedDir != "" {
		if err := saveDecoded(rle, decodedDir, payload); err != nil {
			return nil, samtrace.Size{}, err
		}
	}

	size := targetSize(w, h, first.Width, first.Height)

	pool, err := postprocess.NewPool(workers, params)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	defer pool.Close()

	outlines, err := pool.AllObjects(payload.Masks, payload.ImageHeight, size)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	paths := make([]samtrace.VectorPath, len(outlines))

	for i, o := range outlines {
		paths[i] = o.Path
	}

	return paths, size, nil
}

// saveDecoded writes every mask of the payload as a binary PNG image
func saveDecoded(rle *postprocess.RLE, dir string, payload postprocess.AllObjectsPayload) error {

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating %s: %w", dir, err)
	}

	for i, em := range payload.Masks {
		mask, err := rle.Decode(em.Counts, payload.ImageHeight)

		if err != nil {
			return fmt.Errorf("error decoding object %d: %w", i, err)
		}

		mat, err := preprocess.MatFromMask(mask)

		if err != nil {
			return err
		}

		file := filepath.Join(dir, fmt.Sprintf("mask-%03d.png", i))
		ok := gocv.IMWrite(file, mat)
		mat.Close()

		if !ok {
			return fmt.Errorf("error writing %s", file)
		}
	}

	log.Printf("Saved %d decoded masks to %s\n", len(payload.Masks), dir)

	return nil
}

// loadAux reads the per channel score arrays of a multi mask run
func loadAux(auxFile string) (auxScores, error) {

	var aux auxScores

	if auxFile == "" {
		return aux, fmt.Errorf("-aux score file is required for multi mask outputs")
	}

	raw, err := os.ReadFile(auxFile)

	if err != nil {
		return aux, fmt.Errorf("error reading aux scores: %w", err)
	}

	if err := json.Unmarshal(raw, &aux); err != nil {
		return aux, fmt.Errorf("error parsing aux scores: %w", err)
	}

	return aux, nil
}

// traceTensor ranks and traces the candidates of a multi mask tensor file
func traceTensor(sam *postprocess.SAM, file string, f16 bool, dims, auxFile string,
	w, h int) ([]samtrace.VectorPath, samtrace.Size, error) {

	c, ch, cw, err := parseDims(dims)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	aux, err := loadAux(auxFile)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	out := postprocess.MultiMaskOutput{
		Channels:      c,
		Height:        ch,
		Width:         cw,
		Areas:         aux.Areas,
		UncertainIoUs: aux.UncertainIoUs,
		IoUs:          aux.IoUs,
	}

	if f16 {
		out.MasksF16, err = samtrace.LoadTensorF16(file)
	} else {
		out.Masks, err = samtrace.LoadTensor(file)
	}

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	size := targetSize(w, h, cw, ch)

	paths, err := rankMultiMask(sam, out, size)

	return paths, size, err
}

// traceMaskSet ranks and traces a multi mask output stored as one image per
// channel
func traceMaskSet(sam *postprocess.SAM, files []string, auxFile string,
	w, h int) ([]samtrace.VectorPath, samtrace.Size, error) {

	aux, err := loadAux(auxFile)

	if err != nil {
		return nil, samtrace.Size{}, err
	}

	var batch *samtrace.Batch
	var mw, mh int

	for i, file := range files {
		img := gocv.IMRead(strings.TrimSpace(file), gocv.IMReadGrayScale)

		if img.Empty() {
			return nil, samtrace.Size{}, fmt.Errorf("error reading image from: %s", file)
		}

		mask, err := preprocess.MaskFromMat(img, 127)
		img.Close()

		if err != nil {
			return nil, samtrace.Size{}, err
		}

		if i == 0 {
			mw, mh = mask.Width, mask.Height
			batch = samtrace.NewBatch(len(files), mh, mw)
		}

		if err := batch.Add(mask); err != nil {
			return nil, samtrace.Size{}, fmt.Errorf("error adding %s: %w", file, err)
		}
	}

	size := targetSize(w, h, mw, mh)

	paths, err := rankMultiMask(sam, postprocess.MultiMaskOutput{
		Masks:         batch.Data(),
		Channels:      batch.Len(),
		Height:        mh,
		Width:         mw,
		Areas:         aux.Areas,
		UncertainIoUs: aux.UncertainIoUs,
		IoUs:          aux.IoUs,
	}, size)

	return paths, size, err
}

// rankMultiMask returns the surviving candidate outlines in bottom to top
// stacking order.  No surviving candidate is not an error, an empty slice
// is returned
func rankMultiMask(sam *postprocess.SAM, out postprocess.MultiMaskOutput,
	size samtrace.Size) ([]samtrace.VectorPath, error) {

	res, err := sam.MultiMask(out, size)

	if err != nil {
		return nil, err
	}

	log.Printf("candidate order=%v uncertain_ious=%v\n", res.Order, res.UncertainIoUs)

	if res.Empty() {
		log.Println("no usable mask, every candidate was filtered out")
		return nil, nil
	}

	log.Printf("best outline is layer %d of %d\n", res.Best, len(res.Paths))

	return res.Paths, nil
}

// parseDims parses a C,H,W dimension string
func parseDims(s string) (int, int, int, error) {

	parts := strings.Split(s, ",")

	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid dimensions %q, expected C,H,W", s)
	}

	var v [3]int

	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))

		if err != nil || n <= 0 {
			return 0, 0, 0, fmt.Errorf("invalid dimension %q in %q", p, s)
		}

		v[i] = n
	}

	return v[0], v[1], v[2], nil
}

// savePreview rasterizes the outlines onto a black canvas and writes it as an
// image file
func savePreview(file string, paths []samtrace.VectorPath, size samtrace.Size) error {

	canvas := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))

	for i := range canvas.Pix {
		if i%4 == 3 {
			canvas.Pix[i] = 255
		}
	}

	for i, p := range paths {
		render.Overlay(canvas, p, i, 160)
	}

	mat, err := gocv.ImageToMatRGBA(canvas)

	if err != nil {
		return fmt.Errorf("error converting preview: %w", err)
	}

	defer mat.Close()

	if ok := gocv.IMWrite(file, mat); !ok {
		return fmt.Errorf("error writing %s", file)
	}

	return nil
}
