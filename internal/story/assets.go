package story

// AddAsset stores asset. An existing asset with the same name has its content
// replaced in place; otherwise the asset is appended.
func (d *Document) AddAsset(asset Asset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	assets := make([]Asset, len(d.story.Assets), len(d.story.Assets)+1)
	copy(assets, d.story.Assets)
	for i := range assets {
		if assets[i].Name == asset.Name {
			assets[i].Content = asset.Content
			d.story.Assets = assets
			return
		}
	}
	d.story.Assets = append(assets, asset)
}

// RemoveAsset deletes the asset called name and reports whether it existed.
func (d *Document) RemoveAsset(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.story.AssetIndex(name)
	if idx < 0 {
		return false
	}
	assets := make([]Asset, 0, len(d.story.Assets)-1)
	assets = append(assets, d.story.Assets[:idx]...)
	assets = append(assets, d.story.Assets[idx+1:]...)
	d.story.Assets = assets
	return true
}

// Asset returns the asset called name.
func (d *Document) Asset(name string) (Asset, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	idx := d.story.AssetIndex(name)
	if idx < 0 {
		return Asset{}, false
	}
	return d.story.Assets[idx], true
}
