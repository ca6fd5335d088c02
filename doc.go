/*
Package railway implements the railway resolution-independent 2D vector
graphic format and its reference renderer. A railway file encodes a small
dataflow program over (x, y) value couples which is re-evaluated whenever a
named input such as the target size changes, followed by the paths,
Gouraud-shaded backgrounds and strokes that consume the computed values.

The package provides a command line interface which can convert railway
files to PNG, JPEG or BMP and preview them in a resizable window. To check
the supported commands type:

	$ railway --help

In case you wish to integrate the API in a self constructed environment
here is a simple example:

	package main

	import (
		"github.com/railwayfile/railway"
		"github.com/railwayfile/railway/scan"
	)

	func main() {
		p, err := railway.Parse(fileBytes)
		if err != nil {
			// ...
		}
		r := railway.NewRenderer(p, scan.NewRasterizer(scan.DefaultSSAA))
		r.SetArgument("size", railway.NewCouple(512, 512))
		r.Compute()

		dst := make([]uint8, 512*512*4)
		mask := make([]uint8, 512*512)
		if err := r.Render(dst, mask, 512, 512, 512, false); err != nil {
			// ...
		}
	}
*/
package railway
