package engine

import (
	"sort"

	"hla-gateway/internal/core/types"
	"hla-gateway/internal/network"
	"hla-gateway/pkg/api"
)

// Методы этого файла строят снимки для инспекции. Вызываются только на
// горутине цикла (через Query).

// BuildSessionView возвращает сводку состояния.
func (s *Session) BuildSessionView() api.SessionView {
	federation, federate := s.Gateway.Federation()
	return api.SessionView{
		Federation:   federation,
		Federate:     federate,
		Connected:    s.Gateway.IsConnected(),
		DDMEnabled:   s.Gateway.IsDDMEnabled(),
		Tick:         s.CurrentTick,
		Actors:       s.Actors.Len(),
		Objects:      s.Gateway.Runtime().Len(),
		Queued:       s.Gateway.QueuedRegistrations(),
		Observers:    s.Hub.SubscriberCount(),
		ObjectMaps:   len(s.Gateway.ObjectMappings()),
		MessageMaps:  len(s.Gateway.InteractionMappings()),
		CatalogTypes: len(s.Gateway.Messages().Types()),
	}
}

// BuildActorViews возвращает акторов хранилища.
func (s *Session) BuildActorViews() []api.ActorView {
	actors := s.Actors.Actors()
	out := make([]api.ActorView, 0, len(actors))
	for _, a := range actors {
		view := api.ActorView{
			ID:     a.ID.String(),
			Type:   a.Type.FullName(),
			Name:   a.Name,
			Remote: a.Remote,
		}
		for _, name := range a.PropertyNames() {
			v, _ := a.GetProperty(name)
			view.Props = append(view.Props, network.ParamView(name, v))
		}
		out = append(out, view)
	}
	return out
}

// BuildObjectViews возвращает живые соответствия объектов и акторов.
func (s *Session) BuildObjectViews() []api.ObjectView {
	entries := s.Gateway.Runtime().Entries()
	out := make([]api.ObjectView, 0, len(entries))
	for _, e := range entries {
		view := api.ObjectView{
			Handle:  uint64(e.Handle),
			Name:    e.Name,
			ActorID: e.ActorID.String(),
			Local:   !e.Remote,
			Pending: e.Pending,
		}
		if e.Mapping != nil {
			view.Mapping = e.Mapping.Name()
		}
		if e.EntityID != types.NilEntityIdentifier {
			view.EntityID = e.EntityID.String()
		}
		out = append(out, view)
	}
	return out
}

// BuildMappingViews возвращает маппинги объектов и взаимодействий в порядке регистрации.
func (s *Session) BuildMappingViews() []api.MappingView {
	out := []api.MappingView{}
	for _, m := range s.Gateway.ObjectMappings() {
		view := api.MappingView{
			Name:      m.Name(),
			Class:     m.ObjectClassName,
			ActorType: m.ActorType.FullName(),
			Direction: m.LocalOrRemote.String(),
			Fields:    len(m.Mappings),
		}
		if m.EntityType != nil {
			view.EntityType = m.EntityType.String()
		}
		out = append(out, view)
	}
	for _, m := range s.Gateway.InteractionMappings() {
		out = append(out, api.MappingView{
			Name:      m.Name(),
			Class:     m.InteractionName,
			Message:   m.MessageType.String(),
			Direction: m.LocalOrRemote.String(),
			Fields:    len(m.Mappings),
		})
	}
	return out
}

// BuildRegionViews возвращает регионы подписки DDM.
func (s *Session) BuildRegionViews() []api.RegionView {
	held := s.Gateway.SubscriptionRegions()
	names := make([]string, 0, len(held))
	for name := range held {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []api.RegionView{}
	for _, name := range names {
		for _, r := range held[name] {
			view := api.RegionView{Calculator: name, Name: r.Name, Handle: uint32(r.Region)}
			for _, d := range r.Dimensions {
				view.Dimensions = append(view.Dimensions, api.DimensionBounds{Name: d.Name, Min: d.Min, Max: d.Max})
			}
			out = append(out, view)
		}
	}
	return out
}

// BuildLogs возвращает копию журнала событий.
func (s *Session) BuildLogs() []api.LogEntry {
	return append([]api.LogEntry(nil), s.Logs...)
}
