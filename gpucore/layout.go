package gpucore

// Fixed binding slots of the surface bind group (group 0).
const (
	SurfaceImageBinding  uint32 = 0
	SurfaceParamsBinding uint32 = 1
)

// SurfaceImageFormat is the storage format every surface image uses.
const SurfaceImageFormat = TextureFormatRGBA8Unorm

// SurfaceBindGroupLayout returns the layout every compute program must
// declare at group 0.
func SurfaceBindGroupLayout() *BindGroupLayoutDesc {
	return &BindGroupLayoutDesc{
		Label: "surface_bind_group_layout",
		Entries: []BindGroupLayoutEntry{
			{
				Binding: SurfaceImageBinding,
				Type:    BindingTypeStorageTexture,
				Format:  SurfaceImageFormat,
				Access:  StorageAccessReadWrite,
			},
			{
				Binding:        SurfaceParamsBinding,
				Type:           BindingTypeUniformBuffer,
				MinBindingSize: SurfaceParamsSize,
			},
		},
	}
}
