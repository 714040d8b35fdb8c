package gstreamer

import (
	"github.com/go-gst/go-gst/gst"
)

func SetProperties(e *gst.Element, pp map[string]any) error {
	for k, v := range pp {
		if err := e.SetProperty(k, v); err != nil {
			return err
		}
	}
	return nil
}
