// Package brisque decodes and scores images with OpenCV. Decoding goes
// through cv::imdecode and scoring through the BRISQUE implementation in the
// opencv_contrib quality module.
//
// Building requires OpenCV 4 with the contrib modules, discoverable through
// pkg-config (opencv4), the same setup gocv needs.
package brisque

/*
#cgo !windows pkg-config: opencv4
#cgo CXXFLAGS: --std=c++11
#include <stdlib.h>
#include "brisque.h"
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/mchmarny/brisque/pkg/quality"
	"gocv.io/x/gocv"
)

// Image is an 8-bit BGR matrix owned by the Engine.
type Image struct {
	mat gocv.Mat
}

// Size returns the matrix width and height.
func (i *Image) Size() (int, int) {
	return i.mat.Cols(), i.mat.Rows()
}

// Close releases the matrix.
func (i *Image) Close() error {
	return i.mat.Close()
}

// Engine implements quality.Engine on top of cv::imdecode and
// cv::quality::QualityBRISQUE.
type Engine struct{}

// NewEngine returns an OpenCV backed engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Decode decodes b with IMREAD_COLOR: alpha is dropped, EXIF orientation is
// applied and the result is always 3-channel BGR.
func (e *Engine) Decode(b []byte) (quality.Image, error) {
	mat, err := gocv.IMDecode(b, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("empty image matrix")
	}
	return &Image{mat: mat}, nil
}

// Resize scales img to width x height with pixel area resampling.
func (e *Engine) Resize(img quality.Image, width, height int) (quality.Image, error) {
	src, err := matOf(img)
	if err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	if err := gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationArea); err != nil {
		dst.Close()
		return nil, fmt.Errorf("resizing image: %w", err)
	}
	return &Image{mat: dst}, nil
}

// Score evaluates img. The result is the cv::Scalar returned by OpenCV.
func (e *Engine) Score(_ context.Context, img quality.Image, modelPath, rangePath string) (quality.Result, error) {
	mat, err := matOf(img)
	if err != nil {
		return quality.Result{}, err
	}
	if mat.Empty() {
		return quality.Result{}, errors.New("empty image matrix")
	}

	return Compute(mat, modelPath, rangePath)
}

func matOf(img quality.Image) (gocv.Mat, error) {
	i, ok := img.(*Image)
	if !ok {
		return gocv.Mat{}, fmt.Errorf("unsupported image type %T", img)
	}
	return i.mat, nil
}

// Compute runs BRISQUE on a BGR matrix.
func Compute(mat gocv.Mat, modelPath, rangePath string) (quality.Result, error) {
	cModel := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModel))
	cRange := C.CString(rangePath)
	defer C.free(unsafe.Pointer(cRange))

	res := C.BRISQUE_Compute(unsafe.Pointer(mat.Ptr()), cModel, cRange)
	if res.err != nil {
		msg := C.GoString(res.err)
		C.free(unsafe.Pointer(res.err))
		return quality.Result{}, errors.New(msg)
	}

	return quality.Sequence(
		float64(res.val[0]),
		float64(res.val[1]),
		float64(res.val[2]),
		float64(res.val[3]),
	), nil
}
