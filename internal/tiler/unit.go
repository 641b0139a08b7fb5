package tiler

// ConversionUnit is one spatial cell: Data/<Name>/<Name>.osgb converted into its mirrored Output folder
type ConversionUnit struct {
	Name   string
	Input  string
	Output string
}
