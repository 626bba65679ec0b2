package renderer

// frameStructSource is shared by every shader. Layout matches GPUFrameUniforms.
const frameStructSource = `
struct Frame {
    view_proj: mat4x4<f32>,
    light_view_proj: mat4x4<f32>,
    camera_pos: vec4<f32>,
    ambient: vec4<f32>,
    light_dirs: array<vec4<f32>, 3>,
    light_colors: array<vec4<f32>, 3>,
    fog_color: vec4<f32>,
    params: vec4<f32>,
};

struct Object {
    model: mat4x4<f32>,
    color: vec4<f32>,
    emissive: vec4<f32>,
    flags: vec4<f32>,
};
`

// litShaderSource shades meshes with ambient plus three directional lights, a PCF shadow
// lookup for the first light and linear distance fog.
const litShaderSource = frameStructSource + `
@group(0) @binding(0) var<uniform> frame: Frame;
@group(0) @binding(1) var shadow_map: texture_depth_2d;
@group(0) @binding(2) var shadow_sampler: sampler_comparison;
@group(1) @binding(0) var<uniform> object: Object;

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) world_pos: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) light_pos: vec4<f32>,
};

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>) -> VertexOut {
    var out: VertexOut;
    let world = object.model * vec4<f32>(position, 1.0);
    out.clip = frame.view_proj * world;
    out.world_pos = world.xyz;
    out.normal = normalize((object.model * vec4<f32>(normal, 0.0)).xyz);
    out.light_pos = frame.light_view_proj * world;
    return out;
}

fn shadow_factor(light_pos: vec4<f32>) -> f32 {
    if (frame.params.w < 0.5 || object.flags.x < 0.5) {
        return 1.0;
    }
    let ndc = light_pos.xyz / light_pos.w;
    let uv = vec2<f32>(ndc.x * 0.5 + 0.5, 0.5 - ndc.y * 0.5);
    if (uv.x < 0.0 || uv.x > 1.0 || uv.y < 0.0 || uv.y > 1.0 || ndc.z > 1.0) {
        return 1.0;
    }
    let texel = 1.0 / vec2<f32>(textureDimensions(shadow_map));
    var lit = 0.0;
    for (var y = -1; y <= 1; y++) {
        for (var x = -1; x <= 1; x++) {
            let offset = vec2<f32>(f32(x), f32(y)) * texel;
            lit += textureSampleCompareLevel(shadow_map, shadow_sampler, uv + offset, ndc.z - frame.params.z);
        }
    }
    return lit / 9.0;
}

@fragment
fn fs_main(in: VertexOut, @builtin(front_facing) front: bool) -> @location(0) vec4<f32> {
    var n = normalize(in.normal);
    if (!front) {
        n = -n;
    }
    let view_dir = normalize(frame.camera_pos.xyz - in.world_pos);
    let shininess = mix(64.0, 4.0, clamp(object.emissive.w, 0.0, 1.0));
    let specular_strength = mix(0.04, 0.5, clamp(object.flags.y, 0.0, 1.0)) * (1.0 - object.emissive.w * 0.8);
    let shadow = shadow_factor(in.light_pos);

    var color = object.color.rgb * frame.ambient.rgb;
    for (var i = 0; i < 3; i++) {
        let l = normalize(frame.light_dirs[i].xyz);
        let radiance = frame.light_colors[i].rgb;
        let diffuse = max(dot(n, l), 0.0);
        let h = normalize(l + view_dir);
        let spec = pow(max(dot(n, h), 0.0), shininess) * specular_strength;
        var visibility = 1.0;
        if (i == 0) {
            visibility = shadow;
        }
        color += (object.color.rgb * diffuse + vec3<f32>(spec)) * radiance * visibility;
    }
    color += object.emissive.rgb;

    if (frame.fog_color.w > 0.5) {
        let dist = distance(frame.camera_pos.xyz, in.world_pos);
        let fog = clamp((dist - frame.params.x) / max(frame.params.y - frame.params.x, 0.0001), 0.0, 1.0);
        color = mix(color, frame.fog_color.rgb, fog);
    }
    return vec4<f32>(color, object.color.a);
}
`

// shadowShaderSource writes depth from the shadow caster's point of view.
const shadowShaderSource = frameStructSource + `
@group(0) @binding(0) var<uniform> frame: Frame;
@group(1) @binding(0) var<uniform> object: Object;

@vertex
fn vs_shadow(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>) -> @builtin(position) vec4<f32> {
    return frame.light_view_proj * object.model * vec4<f32>(position, 1.0);
}
`
