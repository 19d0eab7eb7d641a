// Package storyfolder reads and writes the on-disk authoring layout of a
// story:
//
//	<story>/
//	  story.yaml          metadata
//	  story.js            global script (optional)
//	  scenes/<name>/      one folder per scene, loaded in name order
//	    <name>.yaml       header, key, camera, timings
//	    <name>.md         description
//	    <name>.js         scene script
//	  assets/             bundled files, named by base name
package storyfolder
