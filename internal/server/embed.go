package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"text/template"

	"github.com/gorilla/mux"
	"github.com/headline-goat/ratechart/internal/dashboard"
	"github.com/headline-goat/ratechart/internal/store"
)

// EmbedSettingKey is the settings key that publishes a dataset's chart on
// the public /embed routes.
func EmbedSettingKey(name string) string {
	return "embed:" + name
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	file := path.Base(mux.Vars(r)["file"])
	data, err := dashboard.Assets.ReadFile("assets/" + file)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	ct := mime.TypeByExtension(path.Ext(file))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}

// handleEmbedJS serves the script that embed snippets load.
func (s *Server) handleEmbedJS(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	serverURL := fmt.Sprintf("%s://%s", scheme, r.Host)

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write([]byte(GenerateEmbedScript(serverURL)))
}

// handleEmbedChart serves a published dataset's chart without a token.
func (s *Server) handleEmbedChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	name := mux.Vars(r)["name"]
	published, err := s.store.GetSetting(r.Context(), EmbedSettingKey(name))
	if errors.Is(err, store.ErrNotFound) || (err == nil && published != "1") {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dataset %q is not published", name))
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("dataset", name).Msg("failed to read embed setting")
		writeError(w, http.StatusInternalServerError, "failed to load dataset")
		return
	}

	name, ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	s.writeChart(w, r, name, ds)
}

// GenerateEmbedScript returns the embed.js script for serverURL. It swaps
// every element carrying data-rc-chart for the published chart image, sized
// to the element and refreshed on resize.
func GenerateEmbedScript(serverURL string) string {
	return fmt.Sprintf(`(function(){
  var S='%s';

  function src(el,w){
    var p=new URLSearchParams();
    ['variation','period','style','theme'].forEach(function(k){
      var v=el.getAttribute('data-rc-'+k);
      if(v)p.set(k,v);
    });
    p.set('width',w);
    p.set('height',el.getAttribute('data-rc-height')||330);
    return S+'/embed/'+encodeURIComponent(el.getAttribute('data-rc-chart'))+'/chart.svg?'+p.toString();
  }

  function draw(el){
    var w=Math.round(el.clientWidth)||1300;
    if(el._rcWidth===w)return;
    el._rcWidth=w;
    var img=el.querySelector('img');
    if(!img){
      img=document.createElement('img');
      img.alt=el.getAttribute('data-rc-chart')+' conversion rate';
      img.style.display='block';
      el.appendChild(img);
    }
    img.src=src(el,w);
  }

  function all(){
    document.querySelectorAll('[data-rc-chart]').forEach(draw);
  }

  var timer=null;
  window.addEventListener('resize',function(){
    clearTimeout(timer);
    timer=setTimeout(all,150);
  });

  if(document.readyState==='loading'){
    document.addEventListener('DOMContentLoaded',all);
  }else{
    all();
  }
})();
`, template.JSEscapeString(serverURL))
}
