package framegraph

import (
	"github.com/gekko3d/framegraph/scene"
)

// Lifetime removes its node, subtree included, once TimeLeft (seconds) runs out.
type Lifetime struct {
	TimeLeft float32
}

type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	cmd.UseSystem(System(lifetimeSystem).InStage(PostUpdate))
}

func lifetimeSystem(t *Time, w *scene.World, cmd *Commands) {
	dt := float32(t.Dt.Seconds())
	if dt <= 0 {
		return
	}
	for _, f := range scene.FindAll[Lifetime](w) {
		f.Component.TimeLeft -= dt
		if f.Component.TimeLeft <= 0 {
			cmd.RemoveNode(f.Node.Id())
		}
	}
}
