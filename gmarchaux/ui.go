//go:build !tinygo && cgo

package gmarchaux

import (
	"image"
	"log"
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/gmarch/render"
)

const uiFPS = 60

func ui(cfg UIConfig) error {
	bb := cfg.Params.Scene.Bounds()
	diag := float64(bb.Diagonal())
	if diag <= 0 {
		diag = 1
	}
	target := bb.Center()

	window, term, err := startGLFW(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer term()

	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex: `#version 460
in vec2 aPos;
out vec2 vTexCoord;
void main() {
    vTexCoord = aPos * 0.5 + 0.5;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
` + "\x00",
		Fragment: `#version 460
in vec2 vTexCoord;
out vec4 fragColor;
uniform sampler2D uFrame;
void main() {
    // Image rows run top down, texture coordinates bottom up.
    fragColor = texture(uFrame, vec2(vTexCoord.x, 1.0 - vTexCoord.y));
}
` + "\x00",
	})
	if err != nil {
		return err
	}
	prog.Bind()
	// Screen covering quad the CPU frame is textured onto.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	frameUniform, err := prog.UniformLocation("uFrame\x00")
	if err != nil {
		return err
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.Uniform1i(frameUniform, 0)

	rw := max(1, cfg.Width/cfg.RenderScale)
	rh := max(1, cfg.Height/cfg.RenderScale)
	p := cfg.Params
	p.Camera.Width = rw
	p.Camera.Height = rh
	if p.Camera.FOV == 0 {
		p.Camera.FOV = 60
	}
	if p.Camera.Far == 0 {
		p.Camera.Far = float32(20 * diag)
	}
	camDist := diag
	p.Camera.LookAt(ms3.Sub(target, ms3.Vec{Z: float32(camDist)}), target)
	renderer, err := render.NewRenderer(p)
	if err != nil {
		return err
	}
	frame := image.NewRGBA(image.Rect(0, 0, rw, rh))

	// Mouse input drives spring equilibria, the rendered pose glides after.
	minZoom := diag * 0.00001
	maxZoom := diag * 10
	var (
		spring                 = harmonica.NewSpring(harmonica.FPS(uiFPS), 4.0, 1.0)
		yaw, yawVel            float64
		pitch, pitchVel        float64
		dist, distVel          = camDist, 0.0
		targetYaw, targetPitch float64
		targetDist             = camDist
		lastMouseX, lastMouseY float64
		firstMouseMove         = true
		isMousePressed         = false
		yawSensitivity         = 0.005
		pitchSensitivity       = 0.005
		refresh                = true
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		refresh = true
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		targetYaw += (xpos - lastMouseX) * yawSensitivity
		targetPitch -= (ypos - lastMouseY) * pitchSensitivity // Invert y-axis.

		maxPitch := math.Pi/2 - 0.02
		if targetPitch > maxPitch {
			targetPitch = maxPitch
		}
		if targetPitch < -maxPitch {
			targetPitch = -maxPitch
		}
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		refresh = true
		targetDist -= yoff * (targetDist*.1 + .01)
		if targetDist < minZoom {
			targetDist = minZoom
		}
		if targetDist > maxZoom {
			targetDist = maxZoom
		}
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		switch button {
		case glfw.MouseButtonLeft:
			refresh = true
			if action == glfw.Press {
				isMousePressed = true
				firstMouseMove = true
				window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else if action == glfw.Release {
				isMousePressed = false
				window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		}
	})

	animated := cfg.Update != nil
	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if animated {
			s, err := cfg.Update(glfw.GetTime())
			if err != nil {
				return err
			}
			if s != nil {
				renderer.SetScene(s)
			}
		}
		yaw, yawVel = spring.Update(yaw, yawVel, targetYaw)
		pitch, pitchVel = spring.Update(pitch, pitchVel, targetPitch)
		dist, distVel = spring.Update(dist, distVel, targetDist)
		settled := math.Abs(yaw-targetYaw)+math.Abs(pitch-targetPitch) < 1e-4 &&
			math.Abs(dist-targetDist) < 1e-4*diag

		if refresh || animated || !settled {
			refresh = false
			sy, cy := math.Sincos(yaw)
			sp, cp := math.Sincos(pitch)
			dir := ms3.Vec{X: float32(cp * sy), Y: float32(sp), Z: float32(cp * cy)}
			cam := p.Camera
			cam.LookAt(ms3.Sub(target, ms3.Scale(float32(dist), dir)), target)
			renderer.SetCamera(cam)
			err = renderer.Render(frame)
			if err != nil {
				return err
			}
			gl.BindTexture(gl.TEXTURE_2D, tex)
			gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(rw), int32(rh), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
		}

		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		prog.Bind()
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()

		// Idle at the frame cap until input or animation needs a redraw.
		for {
			time.Sleep(time.Second / uiFPS)
			glfw.PollEvents()
			if refresh || animated || !settled || window.ShouldClose() {
				break
			}
		}
	}
	return nil
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		log.Fatalln("Failed to initialize GLFW:", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		log.Fatalln("Failed to create GLFW window:", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		log.Fatalln("Failed to initialize OpenGL:", err)
	}
	return window, glfw.Terminate, err
}
