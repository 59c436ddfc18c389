package wgpubackend

// DefaultShaders covers the mesh, shadow and bounding box pipelines. Other renderers
// need their shaders supplied with WithShaders.
func DefaultShaders() map[string]Shader {
	return map[string]Shader{
		"mesh":      {Code: clipDepthWGSL + meshWGSL, MeshInput: true},
		"shadows":   {Code: clipDepthWGSL + shadowsWGSL, MeshInput: true},
		"box_lines": {Code: clipDepthWGSL + boxLinesWGSL, Lines: true},
	}
}

// clipDepthWGSL maps the [-w, w] clip depth of the mgl32 projections onto the [0, w]
// range WebGPU clips against. Culling keeps using the unmapped matrices.
const clipDepthWGSL = `
fn clip_depth(p: vec4<f32>) -> vec4<f32> {
	return vec4<f32>(p.xy, 0.5 * (p.z + p.w), p.w);
}
`

const meshWGSL = `
struct SceneUniforms {
	model: mat4x4<f32>,
	view: mat4x4<f32>,
	projection: mat4x4<f32>,
	normal: mat4x4<f32>,
	cascades: array<mat4x4<f32>, 4>,
	splits: vec4<f32>,
	clip_plane: vec4<f32>,
	camera_position: vec4<f32>,
	light_position: vec4<f32>,
	light_color: vec4<f32>,
	light_attenuation: vec4<f32>,
	color: vec4<f32>,
	material: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: SceneUniforms;

struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) world: vec3<f32>,
	@location(1) normal: vec3<f32>,
	@location(2) clip: f32,
};

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>, @location(2) uv: vec2<f32>) -> VertexOut {
	var out: VertexOut;
	let world = u.model * vec4<f32>(position, 1.0);
	out.position = clip_depth(u.projection * u.view * world);
	out.world = world.xyz;
	out.normal = (u.normal * vec4<f32>(normal, 0.0)).xyz;
	out.clip = dot(world, u.clip_plane);
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	if (in.clip < 0.0) {
		discard;
	}
	let to_light = normalize(u.light_position.xyz - in.world);
	let diffuse = max(dot(normalize(in.normal), to_light), 0.0);
	let lit = u.color.rgb * (0.2 + 0.8 * diffuse * u.light_color.rgb);
	return vec4<f32>(lit, u.color.a);
}
`

const shadowsWGSL = `
struct ShadowUniforms {
	model: mat4x4<f32>,
	view: mat4x4<f32>,
	projection: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> u: ShadowUniforms;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>, @location(2) uv: vec2<f32>) -> @builtin(position) vec4<f32> {
	return clip_depth(u.projection * u.view * u.model * vec4<f32>(position, 1.0));
}
`

const boxLinesWGSL = `
struct BoxUniforms {
	view_projection: mat4x4<f32>,
	min: vec4<f32>,
	max: vec4<f32>,
	color: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: BoxUniforms;

const corners = array<vec3<f32>, 8>(
	vec3<f32>(0.0, 0.0, 0.0), vec3<f32>(1.0, 0.0, 0.0), vec3<f32>(1.0, 1.0, 0.0), vec3<f32>(0.0, 1.0, 0.0),
	vec3<f32>(0.0, 0.0, 1.0), vec3<f32>(1.0, 0.0, 1.0), vec3<f32>(1.0, 1.0, 1.0), vec3<f32>(0.0, 1.0, 1.0),
);

const edges = array<u32, 24>(
	0u, 1u, 1u, 2u, 2u, 3u, 3u, 0u,
	4u, 5u, 5u, 6u, 6u, 7u, 7u, 4u,
	0u, 4u, 1u, 5u, 2u, 6u, 3u, 7u,
);

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
	let c = corners[edges[index]];
	let p = mix(u.min.xyz, u.max.xyz, c);
	return clip_depth(u.view_projection * vec4<f32>(p, 1.0));
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return u.color;
}
`
