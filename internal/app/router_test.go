package app

import "testing"

func TestRouter_DefaultsToChat(t *testing.T) {
	r := NewRouter()
	if r.View() != ViewChat || r.Modal() != ModalNone {
		t.Errorf("default state = %v/%v", r.View(), r.Modal())
	}
}

func TestOpenModal_ReplacesPrevious(t *testing.T) {
	r := NewRouter()

	r.OpenModal(ModalFileUpload)
	r.OpenModal(ModalRealtimeVoice)

	if r.Modal() != ModalRealtimeVoice {
		t.Errorf("modal = %v, want realtime voice only", r.Modal())
	}
}

func TestSetView_DismissesModal(t *testing.T) {
	r := NewRouter()

	r.OpenModal(ModalAnalytics)
	r.SetView(ViewStatistics)

	if r.View() != ViewStatistics {
		t.Errorf("view = %v", r.View())
	}
	if r.Modal() != ModalNone {
		t.Errorf("modal should close on view switch, got %v", r.Modal())
	}
}

func TestCloseAll_Resets(t *testing.T) {
	r := NewRouter()

	r.SetView(ViewGoals)
	r.OpenModal(ModalStatementUpload)
	r.CloseAll()

	if r.View() != ViewChat || r.Modal() != ModalNone {
		t.Errorf("state after CloseAll = %v/%v", r.View(), r.Modal())
	}
}

func TestRouter_OnChangeObservesTransitions(t *testing.T) {
	r := NewRouter()
	var seen []string
	r.OnChange = func(v View, m Modal) {
		seen = append(seen, v.String()+"/"+m.String())
	}

	r.OpenModal(ModalFileUpload)
	r.CloseModal()
	r.SetView(ViewGoals)

	want := []string{"chat/file-upload", "chat/none", "goals/none"}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestTwoRouters_Independent(t *testing.T) {
	a, b := NewRouter(), NewRouter()
	a.OpenModal(ModalAnalytics)
	if b.Modal() != ModalNone {
		t.Error("router state leaked between instances")
	}
}
