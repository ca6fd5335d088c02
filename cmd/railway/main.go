package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gioui.org/app"
	"github.com/disintegration/imaging"
	"github.com/railwayfile/railway"
	"github.com/railwayfile/railway/scan"
	"github.com/railwayfile/railway/utils"
	"golang.org/x/image/bmp"
	"golang.org/x/term"
)

const HelpBanner = `
┬─┐┌─┐┬┬  ┬ ┬┌─┐┬ ┬
├┬┘├─┤││  │││├─┤└┬┘
┴└─┴ ┴┴┴─┘└┴┘┴ ┴ ┴

Resolution independent vector graphics renderer.
    Version: %s

`

// pipeName indicates that stdin/stdout is being used as file names.
const pipeName = "-"

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// result holds the relevant information about the rendering process and
// the generated image.
type result struct {
	path string
	err  error
}

var (
	// rwyfile holds the file being accessed, be it normal file or pipe name.
	rwyfile *os.File
	// spinner is used to instantiate and call the progress indicator.
	spinner *utils.Spinner
)

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination")
	newWidth    = flag.Int("width", 0, "Render width (0 = the program's own size)")
	newHeight   = flag.Int("height", 0, "Render height (0 = the program's own size)")
	ssaa        = flag.Int("ssaa", scan.DefaultSSAA, "Supersampling factor per axis")
	alphaBlend  = flag.Bool("blend", false, "Alpha-blend the rendering steps instead of overwriting")
	preview     = flag.Bool("preview", false, "Show GUI window")
	generate    = flag.Bool("gen", false, "Write the built-in demo program to the destination")

	// Common file related variable
	fs os.FileInfo
)

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	defaultMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ RAILWAY", utils.StatusMessage),
		utils.DecorateText("⇢ rendering in progress...", utils.DefaultMessage),
	)
	spinner = utils.NewSpinner(defaultMsg, time.Millisecond*80)

	if *generate {
		if err := writeDemo(*destination); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		return
	}

	if *preview {
		// The rendering process runs in a separate goroutine in order to
		// not block the Gio event loop, which needs to run on the main
		// OS thread on operating systems like MacOS.
		go execute()
		app.Main()
	} else {
		execute()
	}
}

// execute runs the rendering process over the source, a single railway
// file or a whole directory of them.
func execute() {
	var err error

	// Check if source path is a local file or URL.
	if utils.IsValidUrl(*source) {
		src, err := utils.DownloadFile(*source)
		if src != nil {
			defer os.Remove(src.Name())
			defer src.Close()
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the railway file: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		fs, err = src.Stat()
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the railway file: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		rwyfile = src
	} else {
		// Check if the source is a pipe name or a regular file.
		if *source == pipeName {
			fs, err = os.Stdin.Stat()
		} else {
			fs, err = os.Stat(*source)
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the railway file: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		var wg sync.WaitGroup
		// Read destination file or directory.
		if _, err = os.Stat(*destination); err != nil {
			if err = os.Mkdir(*destination, 0755); err != nil {
				log.Fatalf(
					utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage),
					utils.DecorateText(err.Error(), utils.DefaultMessage),
				)
			}
		}

		// the preview window only makes sense for a single file
		*preview = false

		workers := runtime.NumCPU()
		if workers > maxWorkers {
			workers = maxWorkers
		}

		// Process the railway files from the specified directory concurrently.
		ch := make(chan result)
		done := make(chan interface{})
		defer close(done)

		paths, errc := walkDir(done, *source)

		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				consumer(done, paths, *destination, ch)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		// Consume the channel values.
		for res := range ch {
			if res.err != nil {
				err = res.err
			}
			printStatus(res.path, res.err)
		}

		if err = <-errc; err != nil {
			fmt.Fprint(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		err = processor(*source, *destination)
		printStatus(*destination, err)
	}
	if err == nil {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n",
			utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
}

// walkDir starts a goroutine to walk the specified directory tree and
// send the path of each railway file on the string channel. It
// terminates in case the done channel is closed.
func walkDir(done <-chan interface{}, src string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || filepath.Ext(f.Name()) != ".rwy" {
				return nil
			}
			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// consumer reads the path names from the paths channel and renders each
// source file into the destination directory.
func consumer(done <-chan interface{}, paths <-chan string, dest string, res chan<- result) {
	for src := range paths {
		name := filepath.Base(src)
		dst := filepath.Join(dest, name[:len(name)-len(".rwy")]+".png")
		err := processor(src, dst)

		select {
		case <-done:
			return
		case res <- result{path: dst, err: err}:
		}
	}
}

// processor parses and renders the source railway file and encodes the
// frame into the destination.
func processor(in, out string) error {
	spinner.Start()

	spinner.StopMsg = fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ RAILWAY", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the file has been rendered successfully ✔", utils.SuccessMessage),
	)
	defer spinner.Stop()

	src, err := sourceReader(in)
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok && src != os.Stdin {
		defer c.Close()
	}

	bytes, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	p, err := railway.Parse(bytes)
	if err != nil {
		return err
	}

	r := railway.NewRenderer(p, scan.NewRasterizer(*ssaa))
	frame, err := render(r)
	if err != nil {
		return err
	}

	if *preview {
		gui := railway.NewGUI(r, frame.Bounds().Dx(), frame.Bounds().Dy(), *alphaBlend)
		return gui.Run()
	}

	dst, err := destWriter(out)
	if err != nil {
		return err
	}
	if c, ok := dst.(io.Closer); ok && dst != os.Stdout {
		defer c.Close()
	}
	return encodeFrame(frame, out, dst)
}

// render evaluates the program and draws one frame. When the program
// exposes a size argument the requested dimensions are fed straight into
// it; a fixed-geometry program is rendered at its own size and the
// pixels are rescaled afterwards.
func render(r *railway.Renderer) (*image.NRGBA, error) {
	w, h := *newWidth, *newHeight
	if w == 0 {
		w = h
	}
	if h == 0 {
		h = w
	}

	if size, ok := r.GetArgument("size"); ok {
		if w > 0 {
			size = railway.NewCouple(railway.Float(w), railway.Float(h))
			r.SetArgument("size", size)
		}
		w, h = int(size.X), int(size.Y)
		r.Compute()
		return renderFrame(r, w, h, w, h)
	}

	// Without a size input the drawing has a fixed intrinsic geometry;
	// programs conventionally expose it through a size output.
	r.Compute()
	intrinsic, ok := r.Output("size")
	if !ok {
		if w == 0 {
			return nil, errors.New("the program has no size argument, please provide explicit -width and -height")
		}
		return renderFrame(r, w, h, w, h)
	}
	rw, rh := int(intrinsic.X), int(intrinsic.Y)
	if w == 0 {
		w, h = rw, rh
	}
	return renderFrame(r, rw, rh, w, h)
}

// renderFrame draws one rw×rh frame and rescales it to w×h when the two
// differ.
func renderFrame(r *railway.Renderer, rw, rh, w, h int) (*image.NRGBA, error) {
	frame := image.NewNRGBA(image.Rect(0, 0, rw, rh))
	mask := make([]uint8, rw*rh)
	if err := r.Render(frame.Pix, mask, rw, rh, frame.Stride/4, *alphaBlend); err != nil {
		return nil, err
	}
	if rw != w || rh != h {
		frame = imaging.Resize(frame, w, h, imaging.Lanczos)
	}
	return frame, nil
}

// encodeFrame writes the rendered frame in the format matching the
// destination extension. Pipes receive PNG.
func encodeFrame(frame *image.NRGBA, out string, dst io.Writer) error {
	switch filepath.Ext(out) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(dst, frame, &jpeg.Options{Quality: 100})
	case ".bmp":
		return bmp.Encode(dst, frame)
	default:
		return png.Encode(dst, frame)
	}
}

// sourceReader converts the source path to a readable file, be it a
// downloaded URL, a pipe or a regular file.
func sourceReader(in string) (io.Reader, error) {
	if utils.IsValidUrl(in) {
		return rwyfile, nil
	}
	if in == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return os.Stdin, nil
	}
	src, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %v", err)
	}
	return src, nil
}

// destWriter converts the destination path to a writable file.
func destWriter(out string) (io.Writer, error) {
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, nil
	}
	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to create the destination file: %v", err)
	}
	return dst, nil
}

// printStatus displays the relevant information about the rendering process.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError rendering the file: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
		os.Exit(1)
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe rendered image has been saved as: %s %s\n\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}
