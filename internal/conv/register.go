package conv

import (
	"github.com/FlavioCFOliveira/GoConvCheck/internal/device"
	"github.com/FlavioCFOliveira/GoConvCheck/internal/function"
)

func init() {
	function.Register("NaiveConv", device.CPU, func(d device.Device) function.Function {
		return &NaiveConv{base{dev: d}}
	})
	function.Register("NaiveConvGradInput", device.CPU, func(d device.Device) function.Function {
		return &NaiveConvGradInput{base{dev: d}}
	})
	function.Register("NaiveConvGradFilter", device.CPU, func(d device.Device) function.Function {
		return &NaiveConvGradFilter{base{dev: d}}
	})

	for _, t := range []device.DeviceType{device.CPU, device.GPU} {
		function.Register("GemmConv", t, func(d device.Device) function.Function {
			return &GemmConv{base{dev: d}}
		})
		function.Register("GemmConvGradInput", t, func(d device.Device) function.Function {
			return &GemmConvGradInput{base{dev: d}}
		})
		function.Register("GemmConvGradFilter", t, func(d device.Device) function.Function {
			return &GemmConvGradFilter{base{dev: d}}
		})
		function.Register("DepthwiseConv", t, func(d device.Device) function.Function {
			return &DepthwiseConv{base{dev: d}}
		})
		function.Register("DepthwiseConvGradInput", t, func(d device.Device) function.Function {
			return &DepthwiseConvGradInput{base{dev: d}}
		})
		function.Register("DepthwiseConvGradFilter", t, func(d device.Device) function.Function {
			return &DepthwiseConvGradFilter{base{dev: d}}
		})
	}
}
