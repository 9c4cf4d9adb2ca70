package volume

import (
	"compress/gzip"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmrigroup/internal/models"
)

// writeNIfTIFixture synthesizes a minimal little-endian NIfTI-1 .nii.gz
// file: a 348-byte header, a 4-byte no-extension flag, and a float32
// payload with identity scaling.
func writeNIfTIFixture(t *testing.T, path string, dims models.Dims, values []float64) {
	t.Helper()
	require.Len(t, values, dims.Voxels())

	le := binary.LittleEndian
	hdr := make([]byte, 352)
	le.PutUint32(hdr[0:], 348) // sizeof_hdr
	le.PutUint16(hdr[40:], 4)  // dim[0]
	le.PutUint16(hdr[42:], uint16(dims[0]))
	le.PutUint16(hdr[44:], uint16(dims[1]))
	le.PutUint16(hdr[46:], uint16(dims[2]))
	le.PutUint16(hdr[48:], uint16(dims[3]))
	le.PutUint16(hdr[50:], 1)
	le.PutUint16(hdr[52:], 1)
	le.PutUint16(hdr[54:], 1)
	le.PutUint16(hdr[70:], 16) // datatype: float32
	le.PutUint16(hdr[72:], 32) // bitpix
	for i, pd := range []float32{1, 2, 2, 2.4, 1, 1, 1, 1} {
		le.PutUint32(hdr[76+4*i:], math.Float32bits(pd)) // pixdim
	}
	le.PutUint32(hdr[108:], math.Float32bits(352)) // vox_offset
	le.PutUint32(hdr[112:], math.Float32bits(1))   // scl_slope
	copy(hdr[344:], "n+1\x00")                     // magic

	payload := make([]byte, 4*len(values))
	for i, v := range values {
		le.PutUint32(payload[4*i:], math.Float32bits(float32(v)))
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(hdr)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.nii.gz"))
	assert.Error(t, err)
}

func TestLoadAllEmpty(t *testing.T) {
	_, err := LoadAll(nil)
	assert.Error(t, err)
}

func TestCheckDims(t *testing.T) {
	a := &Volume{Path: "a.nii.gz", Dims: models.Dims{91, 109, 91, 1}}
	b := &Volume{Path: "b.nii.gz", Dims: models.Dims{91, 109, 91, 1}}
	c := &Volume{Path: "c.nii.gz", Dims: models.Dims{64, 64, 30, 1}}

	t.Run("Consistent", func(t *testing.T) {
		assert.NoError(t, CheckDims([]*Volume{a, b}))
	})

	t.Run("MismatchListsEveryPath", func(t *testing.T) {
		err := CheckDims([]*Volume{a, b, c})
		require.Error(t, err)

		// The diagnostic must name all volumes, not just the odd one out.
		msg := err.Error()
		for _, want := range []string{"a.nii.gz", "b.nii.gz", "c.nii.gz", "91x109x91x1", "64x64x30x1"} {
			assert.True(t, strings.Contains(msg, want), "error should mention %q:\n%s", want, msg)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		assert.NoError(t, CheckDims(nil))
	})
}

func TestWriteMapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dims := models.Dims{3, 2, 2, 1}

	values := make([]float64, dims.Voxels())
	for i := range values {
		values[i] = float64(i) - 4.5
	}
	refPath := filepath.Join(dir, "ref.nii.gz")
	writeNIfTIFixture(t, refPath, dims, values)

	ref, err := Load(refPath)
	require.NoError(t, err)
	require.Equal(t, dims, ref.Dims)

	stats := make([]float64, dims.Voxels())
	for i := range stats {
		stats[i] = 0.25 * float64(i)
	}
	outPath := filepath.Join(dir, "group.tstat.nii.gz")
	require.NoError(t, ref.WriteMap(stats, outPath))

	// The written map must reload with the reference grid and the
	// statistic values intact.
	out, err := Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, dims, out.Dims)
	for i := range stats {
		assert.InDelta(t, stats[i], out.Data[i], 1e-6, "voxel %d", i)
	}

	// The spatial metadata rides over from the reference untouched;
	// pixdim occupies header bytes 76-107.
	refHdr, err := referenceHeader(refPath)
	require.NoError(t, err)
	outHdr, err := referenceHeader(outPath)
	require.NoError(t, err)
	assert.Equal(t, refHdr[76:108], outHdr[76:108])
}

func TestWriteStats(t *testing.T) {
	dir := t.TempDir()
	dims := models.Dims{2, 2, 1, 1}

	values := []float64{1, 2, 3, 4}
	refPath := filepath.Join(dir, "ref.nii.gz")
	writeNIfTIFixture(t, refPath, dims, values)

	ref, err := Load(refPath)
	require.NoError(t, err)

	maps := &models.StatMaps{
		TStat:            []float64{1.5, -2.5, 0, 3},
		ZStat:            []float64{1.2, -2.1, 0, 2.6},
		Dims:             dims,
		DegreesOfFreedom: 2,
	}

	prefix := filepath.Join(dir, "group")
	tstatPath, zstatPath, err := WriteStats(maps, ref, prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+".tstat.nii.gz", tstatPath)
	assert.Equal(t, prefix+".zstat.nii.gz", zstatPath)

	tstat, err := Load(tstatPath)
	require.NoError(t, err)
	assert.Equal(t, dims, tstat.Dims)
	for i := range maps.TStat {
		assert.InDelta(t, maps.TStat[i], tstat.Data[i], 1e-6, "t-stat voxel %d", i)
	}

	zstat, err := Load(zstatPath)
	require.NoError(t, err)
	assert.Equal(t, dims, zstat.Dims)
	for i := range maps.ZStat {
		assert.InDelta(t, maps.ZStat[i], zstat.Data[i], 1e-6, "z-stat voxel %d", i)
	}
}

func TestWriteMapRejectsWrongLength(t *testing.T) {
	v := &Volume{
		Path: "ref.nii.gz",
		Data: make([]float64, 8),
		Dims: models.Dims{2, 2, 2, 1},
	}

	err := v.WriteMap(make([]float64, 7), filepath.Join(t.TempDir(), "out.nii.gz"))
	assert.Error(t, err)
}
