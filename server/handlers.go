package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/milk9111/physbench/cache"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/evaluate"
	"github.com/milk9111/physbench/render"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
	"github.com/milk9111/physbench/taskio"
	"github.com/milk9111/physbench/userinput"
)

// taskRef names a stored task by id or carries one inline.
type taskRef struct {
	TaskID *int32     `json:"task_id,omitempty"`
	Task   *task.Task `json:"task,omitempty"`
}

type simulateRequest struct {
	taskRef
	UserInput     *scene.UserInput `json:"user_input,omitempty"`
	KeepSpace     bool             `json:"keep_space,omitempty"`
	MaxSteps      int              `json:"max_steps,omitempty"`
	Stride        int              `json:"stride,omitempty"`
	IncludeScenes bool             `json:"include_scenes,omitempty"`
}

type simulateResponse struct {
	IsSolution      bool          `json:"is_solution"`
	StepsSimulated  int32         `json:"steps_simulated"`
	SolvedStateList []bool        `json:"solved_state_list"`
	SceneList       []scene.Scene `json:"scene_list,omitempty"`
	HadOcclusions   bool          `json:"had_occlusions"`
	Cached          bool          `json:"cached"`
}

type evaluateRequest struct {
	taskRef
	UserInput    scene.UserInput `json:"user_input"`
	KeepSpace    bool            `json:"keep_space,omitempty"`
	Steps        int             `json:"steps,omitempty"`
	Stride       int             `json:"stride,omitempty"`
	NeedImages   bool            `json:"need_images,omitempty"`
	NeedFeatures bool            `json:"need_features,omitempty"`
}

type evaluateResponse struct {
	Solved          bool      `json:"solved"`
	HadOcclusions   bool      `json:"had_occlusions"`
	NumScenes       int       `json:"num_scenes"`
	NumObjects      int       `json:"num_objects"`
	Images          []byte    `json:"images,omitempty"`
	Features        []float32 `json:"features,omitempty"`
	SimulationMilli float64   `json:"simulation_ms"`
	PackMilli       float64   `json:"pack_ms"`
}

type occlusionsRequest struct {
	taskRef
	UserInput scene.UserInput `json:"user_input"`
	KeepSpace bool            `json:"keep_space,omitempty"`
}

type renderRequest struct {
	taskRef
	UserInput *scene.UserInput `json:"user_input,omitempty"`
}

func fail(c fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "request_id": reqID(c)})
}

func decode(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return errors.New("body required")
	}
	return json.Unmarshal(c.Body(), v)
}

func (s *Server) resolve(ref taskRef) (*task.Task, int, error) {
	switch {
	case ref.Task != nil:
		if err := ref.Task.Validate(); err != nil {
			return nil, fiber.StatusBadRequest, err
		}
		return ref.Task, 0, nil
	case ref.TaskID != nil:
		t, err := taskio.LoadByID(s.tasksDir, *ref.TaskID)
		if errors.Is(err, taskio.ErrTaskNotFound) {
			return nil, fiber.StatusNotFound, err
		}
		if err != nil {
			return nil, fiber.StatusInternalServerError, err
		}
		return t, 0, nil
	}
	return nil, fiber.StatusBadRequest, errors.New("task_id or task required")
}

func (s *Server) mergeOptions(keepSpace bool) userinput.Options {
	return userinput.Options{KeepSpace: keepSpace, Margin: s.margin}
}

func (s *Server) listTasks(c fiber.Ctx) error {
	ids, err := taskio.ListIDs(s.tasksDir)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"task_ids": ids})
}

func (s *Server) getTask(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 32)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	t, err := taskio.LoadByID(s.tasksDir, int32(id))
	if errors.Is(err, taskio.ErrTaskNotFound) {
		return fail(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(t)
}

func (s *Server) simulate(c fiber.Ctx) error {
	var req simulateRequest
	if err := decode(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	t, status, err := s.resolve(req.taskRef)
	if err != nil {
		return fail(c, status, err)
	}
	if req.MaxSteps <= 0 {
		req.MaxSteps = common.DefaultMaxSteps
	}
	if req.Stride <= 0 {
		req.Stride = 1
	}
	in := req.UserInput
	if in == nil {
		in = &scene.UserInput{}
	}

	// Only stored tasks are cached.
	ctx := c.Context()
	cacheable := s.cache != nil && req.Task == nil && req.TaskID != nil
	var actionKey string
	if cacheable {
		actionKey, err = cache.ActionKey(cache.Action{
			Input:     in,
			MaxSteps:  req.MaxSteps,
			Stride:    req.Stride,
			KeepSpace: req.KeepSpace,
			Margin:    s.margin,
			Params:    s.sim.Params(),
		})
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, err)
		}
		if sim, err := s.cache.Get(ctx, t.TaskID, actionKey); err == nil {
			return c.JSON(toSimulateResponse(sim, req.IncludeScenes, true))
		}
	}

	tk := t.Clone()
	if err := userinput.AddToScene(&tk.Scene, in, s.mergeOptions(req.KeepSpace)); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	sim, err := s.sim.SimulateTask(tk, req.MaxSteps, req.Stride)
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}
	if cacheable {
		if err := s.cache.Put(ctx, t.TaskID, actionKey, sim); err != nil {
			s.logger.Warn("cache put failed", "request_id", reqID(c), "err", err)
		}
	}
	s.logger.Debug("simulated", "request_id", reqID(c), "task", t.TaskID, "solved", sim.IsSolution)
	return c.JSON(toSimulateResponse(sim, req.IncludeScenes, false))
}

func toSimulateResponse(sim *task.TaskSimulation, scenes, cached bool) simulateResponse {
	resp := simulateResponse{
		IsSolution:      sim.IsSolution,
		StepsSimulated:  sim.StepsSimulated,
		SolvedStateList: sim.SolvedStateList,
		HadOcclusions:   evaluate.HadOcclusions(sim),
		Cached:          cached,
	}
	if scenes {
		resp.SceneList = sim.SceneList
	}
	return resp
}

func (s *Server) evaluate(c fiber.Ctx) error {
	var req evaluateRequest
	if err := decode(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	t, status, err := s.resolve(req.taskRef)
	if err != nil {
		return fail(c, status, err)
	}
	if req.Steps <= 0 {
		req.Steps = common.DefaultMaxSteps
	}
	res, err := s.eval.Evaluate(t, &req.UserInput, evaluate.Options{
		KeepSpace:    req.KeepSpace,
		Margin:       s.margin,
		Steps:        req.Steps,
		Stride:       req.Stride,
		NeedImages:   req.NeedImages,
		NeedFeatures: req.NeedFeatures,
	})
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}
	return c.JSON(evaluateResponse{
		Solved:          res.Solved,
		HadOcclusions:   res.HadOcclusions,
		NumScenes:       res.NumScenes,
		NumObjects:      res.NumObjects,
		Images:          res.Images,
		Features:        res.Features,
		SimulationMilli: float64(res.SimulationTime.Microseconds()) / 1000,
		PackMilli:       float64(res.PackTime.Microseconds()) / 1000,
	})
}

func (s *Server) occlusions(c fiber.Ctx) error {
	var req occlusionsRequest
	if err := decode(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	t, status, err := s.resolve(req.taskRef)
	if err != nil {
		return fail(c, status, err)
	}
	had, err := userinput.HasOcclusions(t, &req.UserInput, s.mergeOptions(req.KeepSpace))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(fiber.Map{"had_occlusions": had})
}

func (s *Server) render(c fiber.Ctx) error {
	var req renderRequest
	if err := decode(c, &req); err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	t, status, err := s.resolve(req.taskRef)
	if err != nil {
		return fail(c, status, err)
	}
	sc := t.Scene.Clone()
	if req.UserInput != nil {
		if err := userinput.AddToScene(sc, req.UserInput, s.mergeOptions(false)); err != nil {
			return fail(c, fiber.StatusBadRequest, err)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, render.ToPaletted(render.Render(sc))); err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}
