package shaders

import (
	_ "embed"
)

//go:embed glc_instanced.wgsl
var InstancedWGSL string
