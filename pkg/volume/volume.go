// Package volume wraps NIfTI image I/O for the analysis pipeline. It loads
// compressed or uncompressed NIfTI-1 volumes into flat float64 arrays and
// writes statistic maps back out reusing the affine and header of a
// reference input, so this code never has to construct spatial metadata
// itself.
package volume

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/henghuang/nifti"

	"fmrigroup/internal/models"
)

// NIfTI-1 header byte offsets used when writing statistic maps.
// See the official nifti1.h layout; the header is 348 bytes and
// vox_offset points at the start of the voxel payload.
const (
	hdrSizeOffset     = 0   // sizeof_hdr, int32, must be 348
	hdrDatatypeOffset = 70  // datatype, int16
	hdrBitpixOffset   = 72  // bitpix, int16
	hdrVoxOffset      = 108 // vox_offset, float32
	hdrSclSlopeOffset = 112 // scl_slope, float32
	hdrSclInterOffset = 116 // scl_inter, float32
	hdrCalMaxOffset   = 124 // cal_max, float32
	hdrCalMinOffset   = 128 // cal_min, float32

	nifti1HeaderSize = 348
	datatypeFloat32  = 16
)

// Volume is a single NIfTI volume held in memory.
type Volume struct {
	// Path is the file the volume was loaded from.
	Path string

	// Data holds the voxel values flattened with x varying fastest:
	// index = x + nx*(y + ny*(z + nz*t)).
	Data []float64

	// Dims are the grid dimensions (x, y, z, t).
	Dims models.Dims
}

// Load reads a NIfTI volume (.nii or .nii.gz) from disk.
func Load(path string) (*Volume, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load %s: %v", path, err)
	}

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	dims := img.GetDims()
	nx, ny, nz, nt := dims[0], dims[1], dims[2], dims[3]
	if nt < 1 {
		// 3D files leave the time axis unset
		nt = 1
	}
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("failed to load %s: invalid dimensions %dx%dx%dx%d", path, nx, ny, nz, nt)
	}

	data := make([]float64, nx*ny*nz*nt)
	idx := 0
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					data[idx] = float64(img.GetAt(x, y, z, t))
					idx++
				}
			}
		}
	}

	return &Volume{
		Path: path,
		Data: data,
		Dims: models.Dims{nx, ny, nz, nt},
	}, nil
}

// LoadAll loads every path in order and verifies that all volumes share
// identical dimensions. On a mismatch the returned error lists every path
// with its dimensions so the offending inputs can be identified in one
// pass, matching how group-analysis tools report manifest problems.
func LoadAll(paths []string) ([]*Volume, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no volumes to load")
	}

	fmt.Printf("Loading %d files...\n", len(paths))

	vols := make([]*Volume, 0, len(paths))
	for _, p := range paths {
		v, err := Load(p)
		if err != nil {
			return nil, err
		}
		vols = append(vols, v)
	}

	if err := CheckDims(vols); err != nil {
		return nil, err
	}

	return vols, nil
}

// CheckDims verifies that every volume shares the dimensions of the first.
// On a mismatch the error lists every volume with its dimensions, so all
// offending inputs surface at once.
func CheckDims(vols []*Volume) error {
	if len(vols) == 0 {
		return nil
	}

	ref := vols[0].Dims
	mismatch := false
	for _, v := range vols[1:] {
		if !v.Dims.Equal(ref) {
			mismatch = true
			break
		}
	}
	if !mismatch {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("volumes have different dimensions:\n")
	for _, v := range vols {
		fmt.Fprintf(&sb, "  %s: %s\n", v.Path, v.Dims)
	}
	return fmt.Errorf("%s", strings.TrimRight(sb.String(), "\n"))
}

// WriteMap writes a statistic map to path, reusing the affine and header of
// the volume the receiver was loaded from. The data must cover the
// receiver's grid exactly.
//
// The header (through vox_offset, so any header extensions ride along) is
// copied byte for byte from the reference file; only the datatype, scaling,
// and display-range fields are rewritten, since the payload becomes
// unscaled float32 statistics. A .gz path gets a gzip-compressed file.
func (v *Volume) WriteMap(data []float64, path string) error {
	if len(data) != v.Dims.Voxels() {
		return fmt.Errorf("map has %d values, volume grid has %d voxels", len(data), v.Dims.Voxels())
	}

	header, err := referenceHeader(v.Path)
	if err != nil {
		return err
	}

	le := binary.LittleEndian
	le.PutUint16(header[hdrDatatypeOffset:], datatypeFloat32)
	le.PutUint16(header[hdrBitpixOffset:], 32)
	le.PutUint32(header[hdrSclSlopeOffset:], math.Float32bits(1))
	le.PutUint32(header[hdrSclInterOffset:], math.Float32bits(0))
	le.PutUint32(header[hdrCalMaxOffset:], math.Float32bits(0))
	le.PutUint32(header[hdrCalMinOffset:], math.Float32bits(0))

	payload := make([]byte, 4*len(data))
	for i, value := range data {
		le.PutUint32(payload[4*i:], math.Float32bits(float32(value)))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %v", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return nil
}

// referenceHeader returns the header bytes of a NIfTI file: everything up
// to vox_offset, decompressed if the file is gzipped.
func referenceHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reference volume %s unavailable: %v", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("reference volume %s: %v", path, err)
		}
		defer zr.Close()
		r = zr
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reference volume %s: %v", path, err)
	}
	if len(raw) < nifti1HeaderSize {
		return nil, fmt.Errorf("reference volume %s: truncated header", path)
	}

	le := binary.LittleEndian
	if le.Uint32(raw[hdrSizeOffset:]) != nifti1HeaderSize {
		return nil, fmt.Errorf("reference volume %s: not a little-endian NIfTI-1 file", path)
	}

	voxOffset := int(math.Float32frombits(le.Uint32(raw[hdrVoxOffset:])))
	if voxOffset < nifti1HeaderSize || voxOffset > len(raw) {
		return nil, fmt.Errorf("reference volume %s: invalid vox_offset %d", path, voxOffset)
	}

	header := make([]byte, voxOffset)
	copy(header, raw[:voxOffset])
	return header, nil
}

// WriteStats writes the t-statistic and z-statistic maps next to each other
// as <prefix>.tstat.nii.gz and <prefix>.zstat.nii.gz, using ref for spatial
// metadata. It returns the two paths written.
func WriteStats(maps *models.StatMaps, ref *Volume, prefix string) (tstatPath, zstatPath string, err error) {
	tstatPath = prefix + ".tstat.nii.gz"
	if err = ref.WriteMap(maps.TStat, tstatPath); err != nil {
		return "", "", fmt.Errorf("failed to save t-statistics: %v", err)
	}
	fmt.Printf("Saved t-statistics to %s\n", tstatPath)

	zstatPath = prefix + ".zstat.nii.gz"
	if err = ref.WriteMap(maps.ZStat, zstatPath); err != nil {
		return "", "", fmt.Errorf("failed to save z-statistics: %v", err)
	}
	fmt.Printf("Saved z-statistics to %s\n", zstatPath)

	return tstatPath, zstatPath, nil
}
