package task

import (
	"github.com/milk9111/physbench/scene"
	"github.com/tinylib/msgp/msgp"
)

func (z *Task) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 8)
	o = msgp.AppendString(o, "task_id")
	o = msgp.AppendString(o, z.TaskID)
	o = msgp.AppendString(o, "scene")
	o, err := z.Scene.MarshalMsg(o)
	if err != nil {
		return o, msgp.WrapError(err, "scene")
	}
	o = msgp.AppendString(o, "body_id1")
	o = msgp.AppendInt32(o, z.BodyID1)
	o = msgp.AppendString(o, "body_id2")
	o = msgp.AppendInt32(o, z.BodyID2)
	o = msgp.AppendString(o, "relationships")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Relationships)))
	for _, r := range z.Relationships {
		o = msgp.AppendInt32(o, int32(r))
	}
	o = msgp.AppendString(o, "phantom_shape")
	if z.PhantomShape == nil {
		o = msgp.AppendNil(o)
	} else {
		o, _ = z.PhantomShape.MarshalMsg(o)
	}
	o = msgp.AppendString(o, "description")
	o = msgp.AppendString(o, z.Description)
	o = msgp.AppendString(o, "tier")
	o = msgp.AppendString(o, z.Tier)
	return o, nil
}

func (z *Task) UnmarshalMsg(b []byte) ([]byte, error) {
	z.PhantomShape = nil
	return scene.ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "task_id":
			z.TaskID, o, err = msgp.ReadStringBytes(b)
		case "scene":
			o, err = z.Scene.UnmarshalMsg(b)
		case "body_id1":
			z.BodyID1, o, err = msgp.ReadInt32Bytes(b)
		case "body_id2":
			z.BodyID2, o, err = msgp.ReadInt32Bytes(b)
		case "relationships":
			var n uint32
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.Relationships = make([]SpatialRelationship, n)
			for i := range z.Relationships {
				var v int32
				if v, o, err = msgp.ReadInt32Bytes(o); err != nil {
					return o, err
				}
				z.Relationships[i] = SpatialRelationship(v)
			}
		case "phantom_shape":
			if msgp.IsNil(b) {
				o, err = msgp.ReadNilBytes(b)
				return o, err
			}
			z.PhantomShape = &scene.Shape{}
			o, err = z.PhantomShape.UnmarshalMsg(b)
		case "description":
			z.Description, o, err = msgp.ReadStringBytes(b)
		case "tier":
			z.Tier, o, err = msgp.ReadStringBytes(b)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *Task) Msgsize() int {
	s := 1 + 8*(msgp.StringPrefixSize+len("relationships")) + z.Scene.Msgsize()
	s += 3*msgp.StringPrefixSize + len(z.TaskID) + len(z.Description) + len(z.Tier)
	s += 2*msgp.Int32Size + msgp.ArrayHeaderSize + len(z.Relationships)*msgp.Int32Size
	if z.PhantomShape != nil {
		s += z.PhantomShape.Msgsize()
	} else {
		s += msgp.NilSize
	}
	return s
}

func (z *TaskSimulation) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "scene_list")
	o = msgp.AppendArrayHeader(o, uint32(len(z.SceneList)))
	for i := range z.SceneList {
		o, _ = z.SceneList[i].MarshalMsg(o)
	}
	o = msgp.AppendString(o, "solved_state_list")
	o = msgp.AppendArrayHeader(o, uint32(len(z.SolvedStateList)))
	for _, s := range z.SolvedStateList {
		o = msgp.AppendBool(o, s)
	}
	o = msgp.AppendString(o, "is_solution")
	o = msgp.AppendBool(o, z.IsSolution)
	o = msgp.AppendString(o, "steps_simulated")
	o = msgp.AppendInt32(o, z.StepsSimulated)
	return o, nil
}

func (z *TaskSimulation) UnmarshalMsg(b []byte) ([]byte, error) {
	return scene.ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		var n uint32
		switch key {
		case "scene_list":
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.SceneList = make([]scene.Scene, n)
			for i := range z.SceneList {
				if o, err = z.SceneList[i].UnmarshalMsg(o); err != nil {
					return o, msgp.WrapError(err, i)
				}
			}
		case "solved_state_list":
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.SolvedStateList = make([]bool, n)
			for i := range z.SolvedStateList {
				if z.SolvedStateList[i], o, err = msgp.ReadBoolBytes(o); err != nil {
					return o, err
				}
			}
		case "is_solution":
			z.IsSolution, o, err = msgp.ReadBoolBytes(b)
		case "steps_simulated":
			z.StepsSimulated, o, err = msgp.ReadInt32Bytes(b)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *TaskSimulation) Msgsize() int {
	s := 1 + 4*(msgp.StringPrefixSize+len("solved_state_list")) + 2*msgp.ArrayHeaderSize
	for i := range z.SceneList {
		s += z.SceneList[i].Msgsize()
	}
	s += len(z.SolvedStateList)*msgp.BoolSize + msgp.BoolSize + msgp.Int32Size
	return s
}
